package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

func newTestReport(t *testing.T, storeID string, reporterID uuid.UUID) *domain.Report {
	t.Helper()
	report, err := domain.NewReport(storeID, reporterID, domain.Checklist{
		{Area: "Area Kasir", Condition: domain.ConditionDamaged, Severity: domain.SeveritySevere,
			Note: "lampu rusak", Photos: []string{"p1"},
			Items: []domain.RepairItem{{Name: "Lampu LED", Quantity: 2, UnitPrice: 75000}}},
	}, time.Now())
	require.NoError(t, err)
	return report
}

func TestMemoryReportRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRepository()
	report := newTestReport(t, "T001", uuid.New())

	require.NoError(t, repo.Create(ctx, report))

	t.Run("get returns stored report", func(t *testing.T) {
		got, err := repo.Get(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)
		assert.Equal(t, report.TotalCost, got.TotalCost)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		err := repo.Create(ctx, report)
		require.Error(t, err)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})

	t.Run("unknown id not found", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("returned report is a copy", func(t *testing.T) {
		got, err := repo.Get(ctx, report.ID)
		require.NoError(t, err)
		got.Checklist[0].Note = "mutated"

		fresh, err := repo.Get(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, "lampu rusak", fresh.Checklist[0].Note)
	})
}

func TestMemoryReportRepository_Save_CAS(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRepository()
	report := newTestReport(t, "T001", uuid.New())
	require.NoError(t, repo.Create(ctx, report))

	// First writer wins
	first, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)

	first.Status = domain.StatusPendingApproval
	first.Version++
	require.NoError(t, repo.Save(ctx, first, report.Version))

	// Second writer observes a stale version
	second.Status = domain.StatusClosed
	second.Version++
	err = repo.Save(ctx, second, report.Version)
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	// Stored state matches the successful writer
	stored, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, stored.Status)
	assert.Equal(t, first.Version, stored.Version)
}

func TestMemoryReportRepository_Save_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRepository()
	report := newTestReport(t, "T001", uuid.New())

	err := repo.Save(ctx, report, 1)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestMemoryReportRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRepository()
	reporterA := uuid.New()
	reporterB := uuid.New()

	a := newTestReport(t, "T001", reporterA)
	a.StatusChangedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := newTestReport(t, "T002", reporterB)
	b.Status = domain.StatusPendingApproval
	b.StatusChangedAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c := newTestReport(t, "T001", reporterB)
	c.StatusChangedAt = time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

	for _, r := range []*domain.Report{a, b, c} {
		require.NoError(t, repo.Create(ctx, r))
	}

	t.Run("no filter returns all ordered by status change desc", func(t *testing.T) {
		got, err := repo.List(ctx, ReportFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, c.ID, got[0].ID)
		assert.Equal(t, b.ID, got[1].ID)
		assert.Equal(t, a.ID, got[2].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		got, err := repo.List(ctx, ReportFilter{Status: domain.StatusPendingApproval})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})

	t.Run("filter by store", func(t *testing.T) {
		got, err := repo.List(ctx, ReportFilter{StoreID: "T001"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("filter by reporter", func(t *testing.T) {
		got, err := repo.List(ctx, ReportFilter{ReporterID: reporterA})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
	})

	t.Run("filter by date range", func(t *testing.T) {
		got, err := repo.List(ctx, ReportFilter{DateRange: &DateRange{
			From: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC),
		}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})

	t.Run("search matches area and note text", func(t *testing.T) {
		got, err := repo.List(ctx, ReportFilter{SearchText: "kasir"})
		require.NoError(t, err)
		assert.Len(t, got, 3)

		got, err = repo.List(ctx, ReportFilter{SearchText: "tidak ada"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryStoreRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStoreRepository(
		domain.Store{ID: "T002", Name: "Toko Dua", Address: "Jl. Melati 2"},
		domain.Store{ID: "T001", Name: "Toko Satu", Address: "Jl. Mawar 1"},
	)

	t.Run("get known store", func(t *testing.T) {
		store, err := repo.Get(ctx, "T001")
		require.NoError(t, err)
		assert.Equal(t, "Toko Satu", store.Name)
	})

	t.Run("get unknown store", func(t *testing.T) {
		_, err := repo.Get(ctx, "T999")
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("list sorted by id", func(t *testing.T) {
		stores, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, stores, 2)
		assert.Equal(t, "T001", stores[0].ID)
		assert.Equal(t, "T002", stores[1].ID)
	})
}
