package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/email"
	"github.com/mfauzirahman/rawatoko/internal/engine"
	"github.com/mfauzirahman/rawatoko/internal/export"
	"github.com/mfauzirahman/rawatoko/internal/repository"
	"github.com/mfauzirahman/rawatoko/internal/service"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type fakePhotoStore struct {
	refs map[string]bool
}

func (f *fakePhotoStore) Exists(ctx context.Context, ref string) (bool, error) {
	return f.refs[ref], nil
}

func (f *fakePhotoStore) URL(ctx context.Context, ref string, expires time.Duration) (string, error) {
	return "http://photos.test/" + ref, nil
}

func (f *fakePhotoStore) Delete(ctx context.Context, ref string) error {
	delete(f.refs, ref)
	return nil
}

var (
	reporter = domain.Actor{ID: uuid.New(), Name: "Budi", Role: domain.RoleFieldReporter}
	approver = domain.Actor{ID: uuid.New(), Name: "Sari", Role: domain.RoleApprover}
)

// actorInjector fakes the auth middleware by planting a fixed actor in the
// request context.
func actorInjector(actor *domain.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor != nil {
				r = r.WithContext(auth.SetActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestMux(actor *domain.Actor) (*http.ServeMux, service.ReportService) {
	reports := repository.NewMemoryReportRepository()
	stores := repository.NewMemoryStoreRepository(
		domain.Store{ID: "T001", Name: "Toko Merdeka", Address: "Jl. Merdeka 1"},
	)
	photos := &fakePhotoStore{refs: map[string]bool{"p1": true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.NewReportService(reports, stores, engine.New(reports, photos), email.NewNoopNotifier(), logger)

	mux := http.NewServeMux()
	inject := actorInjector(actor)
	NewReportHandler(svc, stores, export.NewPDFGenerator(), logger).RegisterRoutes(mux, inject)
	NewStoreHandler(stores, logger).RegisterRoutes(mux, inject)
	return mux, svc
}

func createBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(CreateReportRequest{
		StoreID: "T001",
		Checklist: []ChecklistEntryPayload{
			{Area: "Area Kasir", Condition: "damaged", Severity: "severe",
				Note: "lampu rusak", Photos: []string{"p1"},
				Items: []RepairItemPayload{{Name: "Lampu LED", Quantity: 2, UnitPrice: 75000}}},
		},
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

// =============================================================================
// Create
// =============================================================================

func TestReportHandler_Create(t *testing.T) {
	mux, _ := newTestMux(&reporter)

	req := httptest.NewRequest("POST", "/api/reports", createBody(t))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got ReportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "draft", got.Status)
	assert.Equal(t, "T001", got.StoreID)
	assert.Equal(t, int64(150000), got.TotalCost)
	assert.Equal(t, "Rp 150.000", got.TotalCostDisplay)
	assert.Equal(t, int64(1), got.Version)
	require.Len(t, got.Checklist, 1)
	require.Len(t, got.Checklist[0].Items, 1)
	assert.Equal(t, int64(150000), got.Checklist[0].Items[0].Subtotal)
}

func TestReportHandler_Create_BadBody(t *testing.T) {
	mux, _ := newTestMux(&reporter)

	req := httptest.NewRequest("POST", "/api/reports", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandler_Create_WrongRole(t *testing.T) {
	mux, _ := newTestMux(&approver)

	req := httptest.NewRequest("POST", "/api/reports", createBody(t))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp JSONError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.EFORBIDDEN, resp.Error.Code)
}

func TestReportHandler_Create_NoActor(t *testing.T) {
	mux, _ := newTestMux(nil)

	req := httptest.NewRequest("POST", "/api/reports", createBody(t))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Show / Index
// =============================================================================

func TestReportHandler_ShowAndIndex(t *testing.T) {
	mux, svc := newTestMux(&reporter)
	ctx := context.Background()

	created, err := svc.Create(ctx, reporter, "T001", domain.Checklist{
		{Area: "Gudang", Condition: domain.ConditionGood},
	})
	require.NoError(t, err)

	t.Run("show", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports/"+created.ID.String(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got ReportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("show unknown id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("show malformed id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("index", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports?status=draft", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got struct {
			Reports []ReportSummaryResponse `json:"reports"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got.Reports, 1)
		assert.Equal(t, "Toko Merdeka", got.Reports[0].StoreName)
	})

	t.Run("index bad status", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports?status=bogus", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// Transition
// =============================================================================

func TestReportHandler_Transition(t *testing.T) {
	mux, svc := newTestMux(&reporter)
	ctx := context.Background()

	created, err := svc.Create(ctx, reporter, "T001", domain.Checklist{
		{Area: "Area Kasir", Condition: domain.ConditionDamaged, Severity: domain.SeveritySevere,
			Note: "lampu rusak", Photos: []string{"p1"},
			Items: []domain.RepairItem{{Name: "Lampu LED", Quantity: 2, UnitPrice: 75000}}},
	})
	require.NoError(t, err)

	transition := func(action string) *httptest.ResponseRecorder {
		body, err := json.Marshal(TransitionRequest{Action: action})
		require.NoError(t, err)
		req := httptest.NewRequest("POST",
			fmt.Sprintf("/api/reports/%s/transition", created.ID), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("submit succeeds", func(t *testing.T) {
		rec := transition("submit")
		require.Equal(t, http.StatusOK, rec.Code)
		var got ReportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "pending_approval", got.Status)
	})

	t.Run("illegal action maps to conflict", func(t *testing.T) {
		rec := transition("submit")
		assert.Equal(t, http.StatusConflict, rec.Code)
		var resp JSONError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, domain.EILLEGAL, resp.Error.Code)
	})

	t.Run("wrong role maps to forbidden", func(t *testing.T) {
		rec := transition("approve")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown action maps to conflict", func(t *testing.T) {
		rec := transition("destroy")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

// =============================================================================
// Preview Totals
// =============================================================================

func TestReportHandler_PreviewTotals(t *testing.T) {
	mux, _ := newTestMux(&reporter)

	body, err := json.Marshal(PreviewTotalsRequest{
		Checklist: []ChecklistEntryPayload{
			{Area: "Area Kasir", Condition: "damaged", Severity: "severe",
				Note: "lampu rusak",
				Items: []RepairItemPayload{
					{Name: "Lampu LED", Quantity: 2, UnitPrice: 75000},
					{Name: "Kabel NYM", Quantity: 1, UnitPrice: 50000},
				}},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/reports/preview-totals", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got PreviewTotalsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(200000), got.PerArea["Area Kasir"])
	assert.Equal(t, int64(200000), got.Total)
	assert.Equal(t, "Rp 200.000", got.TotalDisplay)
}

// =============================================================================
// Export
// =============================================================================

func TestReportHandler_ExportPDF(t *testing.T) {
	mux, svc := newTestMux(&reporter)
	ctx := context.Background()

	created, err := svc.Create(ctx, reporter, "T001", domain.Checklist{
		{Area: "Gudang", Condition: domain.ConditionGood},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/reports/"+created.ID.String()+"/export.pdf", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), created.ID.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

// =============================================================================
// Stores
// =============================================================================

func TestStoreHandler_Index(t *testing.T) {
	mux, _ := newTestMux(&reporter)

	req := httptest.NewRequest("GET", "/api/stores", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Stores []StoreResponse `json:"stores"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Stores, 1)
	assert.Equal(t, "Toko Merdeka", got.Stores[0].Name)
}
