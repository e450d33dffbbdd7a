package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/email"
	"github.com/mfauzirahman/rawatoko/internal/engine"
	"github.com/mfauzirahman/rawatoko/internal/repository"
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
	admin    = domain.Actor{ID: uuid.New(), Name: "Agus", Role: domain.RoleAdministrator}
)

func damagedChecklist() domain.Checklist {
	return domain.Checklist{
		{Area: "Area Kasir", Condition: domain.ConditionDamaged, Severity: domain.SeveritySevere,
			Note: "lampu rusak", Photos: []string{"p1"},
			Items: []domain.RepairItem{{Name: "Lampu LED", Quantity: 2, UnitPrice: 75000}}},
	}
}

type testEnv struct {
	svc     ReportService
	reports *repository.MemoryReportRepository
	stores  *repository.MemoryStoreRepository
}

func newTestEnv() testEnv {
	reports := repository.NewMemoryReportRepository()
	stores := repository.NewMemoryStoreRepository(
		domain.Store{ID: "T001", Name: "Toko Merdeka", Address: "Jl. Merdeka 1"},
		domain.Store{ID: "T002", Name: "Toko Pahlawan", Address: "Jl. Pahlawan 7"},
	)
	photos := &fakePhotoStore{refs: map[string]bool{"p1": true, "bukti-1.jpg": true}}
	eng := engine.New(reports, photos)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return testEnv{
		svc:     NewReportService(reports, stores, eng, email.NewNoopNotifier(), logger),
		reports: reports,
		stores:  stores,
	}
}

// =============================================================================
// Create
// =============================================================================

func TestReportService_Create(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	t.Run("field reporter creates draft", func(t *testing.T) {
		report, err := env.svc.Create(ctx, reporter, "T001", damagedChecklist())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDraft, report.Status)
		assert.Equal(t, "T001", report.StoreID)
		assert.Equal(t, reporter.ID, report.ReporterID)
		assert.Equal(t, domain.Money(150000), report.TotalCost)
		assert.Equal(t, int64(1), report.Version)
	})

	t.Run("approver cannot create", func(t *testing.T) {
		_, err := env.svc.Create(ctx, approver, "T001", nil)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := env.svc.Create(ctx, reporter, "T999", damagedChecklist())
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("invalid checklist", func(t *testing.T) {
		bad := domain.Checklist{{Area: "Gudang", Condition: domain.ConditionDamaged, Note: "bocor"}}
		_, err := env.svc.Create(ctx, reporter, "T001", bad)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}

// =============================================================================
// Get
// =============================================================================

func TestReportService_Get(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	report, err := env.svc.Create(ctx, reporter, "T001", damagedChecklist())
	require.NoError(t, err)

	t.Run("owner sees own report", func(t *testing.T) {
		got, err := env.svc.Get(ctx, report.ID, reporter)
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)
	})

	t.Run("approver sees any report", func(t *testing.T) {
		_, err := env.svc.Get(ctx, report.ID, approver)
		assert.NoError(t, err)
	})

	t.Run("other reporter gets not found", func(t *testing.T) {
		other := domain.Actor{ID: uuid.New(), Name: "Citra", Role: domain.RoleFieldReporter}
		_, err := env.svc.Get(ctx, report.ID, other)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := env.svc.Get(ctx, uuid.New(), admin)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

// =============================================================================
// List
// =============================================================================

func TestReportService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	other := domain.Actor{ID: uuid.New(), Name: "Citra", Role: domain.RoleFieldReporter}
	_, err := env.svc.Create(ctx, reporter, "T001", damagedChecklist())
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, other, "T002", damagedChecklist())
	require.NoError(t, err)

	t.Run("reporter sees only own reports", func(t *testing.T) {
		got, err := env.svc.List(ctx, repository.ReportFilter{}, reporter)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, reporter.ID, got[0].ReporterID)
	})

	t.Run("reporter filter cannot widen scope", func(t *testing.T) {
		got, err := env.svc.List(ctx, repository.ReportFilter{ReporterID: other.ID}, reporter)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, reporter.ID, got[0].ReporterID)
	})

	t.Run("approver sees all with store names", func(t *testing.T) {
		got, err := env.svc.List(ctx, repository.ReportFilter{}, approver)
		require.NoError(t, err)
		require.Len(t, got, 2)
		names := []string{got[0].StoreName, got[1].StoreName}
		assert.ElementsMatch(t, []string{"Toko Merdeka", "Toko Pahlawan"}, names)
	})

	t.Run("admin filters by store", func(t *testing.T) {
		got, err := env.svc.List(ctx, repository.ReportFilter{StoreID: "T002"}, admin)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "T002", got[0].StoreID)
	})
}

// =============================================================================
// UpdateChecklist
// =============================================================================

func TestReportService_UpdateChecklist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	report, err := env.svc.Create(ctx, reporter, "T001", damagedChecklist())
	require.NoError(t, err)

	t.Run("owner edits draft and total recomputes", func(t *testing.T) {
		updated := damagedChecklist()
		updated[0].Items = append(updated[0].Items,
			domain.RepairItem{Name: "Kabel NYM", Quantity: 1, UnitPrice: 50000})

		got, err := env.svc.UpdateChecklist(ctx, report.ID, reporter, updated)
		require.NoError(t, err)
		assert.Equal(t, domain.Money(200000), got.TotalCost)
		assert.Equal(t, report.Version+1, got.Version)
	})

	t.Run("approver cannot edit", func(t *testing.T) {
		_, err := env.svc.UpdateChecklist(ctx, report.ID, approver, damagedChecklist())
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("non-owner reporter gets not found", func(t *testing.T) {
		other := domain.Actor{ID: uuid.New(), Name: "Citra", Role: domain.RoleFieldReporter}
		_, err := env.svc.UpdateChecklist(ctx, report.ID, other, damagedChecklist())
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("locked after submission", func(t *testing.T) {
		_, err := env.svc.Transition(ctx, report.ID, domain.ActionSubmit, reporter, engine.TransitionInput{})
		require.NoError(t, err)

		_, err = env.svc.UpdateChecklist(ctx, report.ID, reporter, damagedChecklist())
		assert.Equal(t, domain.ELOCKED, domain.ErrorCode(err))
	})
}

// =============================================================================
// PreviewTotals
// =============================================================================

func TestReportService_PreviewTotals(t *testing.T) {
	env := newTestEnv()

	t.Run("computes per-area and grand total", func(t *testing.T) {
		checklist := damagedChecklist()
		checklist = append(checklist, domain.ChecklistAreaEntry{
			Area: "Gudang", Condition: domain.ConditionDamaged, Severity: domain.SeverityLight,
			Note: "atap bocor", Photos: []string{"p1"},
			Items: []domain.RepairItem{{Name: "Semen", Quantity: 3, UnitPrice: 60000}},
		})

		perArea, total, err := env.svc.PreviewTotals(checklist)
		require.NoError(t, err)
		assert.Equal(t, domain.Money(150000), perArea["Area Kasir"])
		assert.Equal(t, domain.Money(180000), perArea["Gudang"])
		assert.Equal(t, domain.Money(330000), total)
	})

	t.Run("rejects invalid checklist", func(t *testing.T) {
		bad := domain.Checklist{{Area: "", Condition: domain.ConditionGood}}
		_, _, err := env.svc.PreviewTotals(bad)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}

// =============================================================================
// CountByStatus
// =============================================================================

func TestReportService_CountByStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	first, err := env.svc.Create(ctx, reporter, "T001", damagedChecklist())
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, reporter, "T002", damagedChecklist())
	require.NoError(t, err)
	_, err = env.svc.Transition(ctx, first.ID, domain.ActionSubmit, reporter, engine.TransitionInput{})
	require.NoError(t, err)

	counts, err := env.svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[string(domain.StatusDraft)])
	assert.Equal(t, 1, counts[string(domain.StatusPendingApproval)])
	assert.Equal(t, 0, counts[string(domain.StatusClosed)])
}

// =============================================================================
// End-to-End Lifecycle
// =============================================================================

// TestReportService_ApprovalFlow walks a report through rejection, rework,
// and final closure the way the three roles would in production.
func TestReportService_ApprovalFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	// Reporter files the damage found at the register area
	report, err := env.svc.Create(ctx, reporter, "T001", damagedChecklist())
	require.NoError(t, err)

	// Submit for approval; the total freezes at submission
	report, err = env.svc.Transition(ctx, report.ID, domain.ActionSubmit, reporter, engine.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, report.Status)
	assert.Equal(t, domain.Money(150000), report.TotalCost)

	// Approver sends it back for better photos
	report, err = env.svc.Transition(ctx, report.ID, domain.ActionReject, approver,
		engine.TransitionInput{Reason: "foto kurang jelas"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, report.Status)
	assert.Equal(t, "foto kurang jelas", report.RejectionReason)

	// Rejected reports are editable again
	report, err = env.svc.UpdateChecklist(ctx, report.ID, reporter, damagedChecklist())
	require.NoError(t, err)

	// Resubmission clears the rejection reason
	report, err = env.svc.Transition(ctx, report.ID, domain.ActionResubmit, reporter, engine.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, report.Status)
	assert.Empty(t, report.RejectionReason)

	// Approve, work, prove, close
	report, err = env.svc.Transition(ctx, report.ID, domain.ActionApprove, approver, engine.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, report.Status)

	report, err = env.svc.Transition(ctx, report.ID, domain.ActionStartWork, reporter, engine.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, report.Status)

	report, err = env.svc.Transition(ctx, report.ID, domain.ActionMarkSolved, reporter,
		engine.TransitionInput{EvidenceRef: "bukti-1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSolved, report.Status)
	assert.Equal(t, "bukti-1.jpg", report.EvidenceRef)

	report, err = env.svc.Transition(ctx, report.ID, domain.ActionClose, admin, engine.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, report.Status)
	assert.True(t, report.Status.IsTerminal())
}
