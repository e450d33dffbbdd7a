// PostgreSQL-backed repositories.
//
// Reports are stored as one row each with the checklist serialized to
// JSONB, so the compare-and-swap on version covers the whole aggregate in
// a single UPDATE. List filters are assembled dynamically with squirrel.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// psql builds queries with PostgreSQL-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// =============================================================================
// PostgreSQL Report Repository
// =============================================================================

// PostgresReportRepository implements ReportRepository on PostgreSQL.
type PostgresReportRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReportRepository creates a report repository backed by the
// given connection pool.
func NewPostgresReportRepository(pool *pgxpool.Pool) *PostgresReportRepository {
	return &PostgresReportRepository{pool: pool}
}

// Create inserts a new report.
func (r *PostgresReportRepository) Create(ctx context.Context, report *domain.Report) error {
	const op = "repository.create"

	checklist, err := marshalChecklist(report.Checklist)
	if err != nil {
		return domain.Internal(err, op, "failed to encode checklist")
	}

	query, args, err := psql.Insert("reports").
		Columns("id", "store_id", "reporter_id", "status", "checklist", "total_cost",
			"rejection_reason", "evidence_ref", "created_at", "status_changed_at", "version").
		Values(report.ID, report.StoreID, report.ReporterID, string(report.Status), checklist,
			int64(report.TotalCost), report.RejectionReason, report.EvidenceRef,
			report.CreatedAt, report.StatusChangedAt, report.Version).
		ToSql()
	if err != nil {
		return domain.Internal(err, op, "failed to build insert")
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return domain.Internal(err, op, "failed to insert report")
	}
	return nil
}

// Get retrieves a report by ID.
func (r *PostgresReportRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "repository.get"

	query, args, err := psql.Select(reportColumns...).
		From("reports").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build select")
	}

	report, err := scanReport(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "report", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get report")
	}
	return report, nil
}

// Save persists a mutated report via compare-and-swap on version.
func (r *PostgresReportRepository) Save(ctx context.Context, report *domain.Report, expectedVersion int64) error {
	const op = "repository.save"

	checklist, err := marshalChecklist(report.Checklist)
	if err != nil {
		return domain.Internal(err, op, "failed to encode checklist")
	}

	query, args, err := psql.Update("reports").
		Set("status", string(report.Status)).
		Set("checklist", checklist).
		Set("total_cost", int64(report.TotalCost)).
		Set("rejection_reason", report.RejectionReason).
		Set("evidence_ref", report.EvidenceRef).
		Set("status_changed_at", report.StatusChangedAt).
		Set("version", report.Version).
		Where(sq.Eq{"id": report.ID, "version": expectedVersion}).
		ToSql()
	if err != nil {
		return domain.Internal(err, op, "failed to build update")
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return domain.Internal(err, op, "failed to save report")
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or another writer committed first.
		if _, getErr := r.Get(ctx, report.ID); getErr != nil {
			return getErr
		}
		return domain.Conflict(op, "report was modified concurrently")
	}
	return nil
}

// listQuery assembles the filtered summary query. Search text matches area
// labels and notes only; the rest of the checklist (condition values, photo
// refs, item names) is not searchable.
func listQuery(filter ReportFilter) (string, []interface{}, error) {
	builder := psql.Select(
		"r.id", "r.store_id", "coalesce(s.name, '')", "r.reporter_id", "r.status",
		"r.total_cost", "jsonb_array_length(r.checklist)", "r.created_at", "r.status_changed_at").
		From("reports r").
		LeftJoin("stores s ON s.id = r.store_id").
		OrderBy("r.status_changed_at DESC")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"r.status": string(filter.Status)})
	}
	if filter.StoreID != "" {
		builder = builder.Where(sq.Eq{"r.store_id": filter.StoreID})
	}
	if filter.ReporterID != uuid.Nil {
		builder = builder.Where(sq.Eq{"r.reporter_id": filter.ReporterID})
	}
	if filter.SearchText != "" {
		pattern := "%" + filter.SearchText + "%"
		builder = builder.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(r.checklist) entry "+
				"WHERE entry->>'area' ILIKE ? OR entry->>'note' ILIKE ?)",
			pattern, pattern,
		))
	}
	if filter.DateRange != nil {
		if !filter.DateRange.From.IsZero() {
			builder = builder.Where(sq.GtOrEq{"r.status_changed_at": filter.DateRange.From})
		}
		if !filter.DateRange.To.IsZero() {
			builder = builder.Where(sq.LtOrEq{"r.status_changed_at": filter.DateRange.To})
		}
	}

	return builder.ToSql()
}

// List returns summaries matching the filter, newest status change first.
func (r *PostgresReportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.ReportSummary, error) {
	const op = "repository.list"

	query, args, err := listQuery(filter)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build list query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reports")
	}
	defer rows.Close()

	var summaries []domain.ReportSummary
	for rows.Next() {
		var (
			s         domain.ReportSummary
			status    string
			totalCost int64
		)
		if err := rows.Scan(&s.ID, &s.StoreID, &s.StoreName, &s.ReporterID, &status,
			&totalCost, &s.AreaCount, &s.CreatedAt, &s.StatusChangedAt); err != nil {
			return nil, domain.Internal(err, op, "failed to scan report summary")
		}
		s.Status = domain.ReportStatus(status)
		s.TotalCost = domain.Money(totalCost)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read report summaries")
	}
	return summaries, nil
}

// =============================================================================
// Row Mapping
// =============================================================================

var reportColumns = []string{
	"id", "store_id", "reporter_id", "status", "checklist", "total_cost",
	"rejection_reason", "evidence_ref", "created_at", "status_changed_at", "version",
}

// checklistEntryRow is the JSONB shape of one checklist entry. Kept separate
// from the domain type so the stored schema stays stable.
type checklistEntryRow struct {
	Area      string          `json:"area"`
	Condition string          `json:"condition"`
	Severity  string          `json:"severity,omitempty"`
	Note      string          `json:"note,omitempty"`
	Photos    []string        `json:"photos,omitempty"`
	Items     []repairItemRow `json:"items,omitempty"`
}

type repairItemRow struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func marshalChecklist(checklist domain.Checklist) ([]byte, error) {
	rows := make([]checklistEntryRow, 0, len(checklist))
	for _, entry := range checklist {
		items := make([]repairItemRow, 0, len(entry.Items))
		for _, item := range entry.Items {
			items = append(items, repairItemRow{
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: int64(item.UnitPrice),
			})
		}
		rows = append(rows, checklistEntryRow{
			Area:      entry.Area,
			Condition: string(entry.Condition),
			Severity:  string(entry.Severity),
			Note:      entry.Note,
			Photos:    entry.Photos,
			Items:     items,
		})
	}
	return json.Marshal(rows)
}

func unmarshalChecklist(data []byte) (domain.Checklist, error) {
	var rows []checklistEntryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode checklist: %w", err)
	}
	checklist := make(domain.Checklist, 0, len(rows))
	for _, row := range rows {
		items := make([]domain.RepairItem, 0, len(row.Items))
		for _, item := range row.Items {
			items = append(items, domain.RepairItem{
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: domain.Money(item.UnitPrice),
			})
		}
		checklist = append(checklist, domain.ChecklistAreaEntry{
			Area:      row.Area,
			Condition: domain.Condition(row.Condition),
			Severity:  domain.Severity(row.Severity),
			Note:      row.Note,
			Photos:    row.Photos,
			Items:     items,
		})
	}
	return checklist, nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		report    domain.Report
		status    string
		checklist []byte
		totalCost int64
	)
	err := row.Scan(&report.ID, &report.StoreID, &report.ReporterID, &status, &checklist,
		&totalCost, &report.RejectionReason, &report.EvidenceRef,
		&report.CreatedAt, &report.StatusChangedAt, &report.Version)
	if err != nil {
		return nil, err
	}

	report.Status = domain.ReportStatus(status)
	report.TotalCost = domain.Money(totalCost)
	report.Checklist, err = unmarshalChecklist(checklist)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// =============================================================================
// PostgreSQL Store Repository
// =============================================================================

// PostgresStoreRepository implements StoreRepository on PostgreSQL.
type PostgresStoreRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStoreRepository creates a store repository backed by the given
// connection pool.
func NewPostgresStoreRepository(pool *pgxpool.Pool) *PostgresStoreRepository {
	return &PostgresStoreRepository{pool: pool}
}

// Get retrieves a store by its external code.
func (r *PostgresStoreRepository) Get(ctx context.Context, id string) (*domain.Store, error) {
	const op = "repository.store_get"

	query, args, err := psql.Select("id", "name", "address").
		From("stores").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build select")
	}

	var store domain.Store
	err = r.pool.QueryRow(ctx, query, args...).Scan(&store.ID, &store.Name, &store.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "store", id)
		}
		return nil, domain.Internal(err, op, "failed to get store")
	}
	return &store, nil
}

// List returns all known stores.
func (r *PostgresStoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	const op = "repository.store_list"

	query, args, err := psql.Select("id", "name", "address").
		From("stores").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build select")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list stores")
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var store domain.Store
		if err := rows.Scan(&store.ID, &store.Name, &store.Address); err != nil {
			return nil, domain.Internal(err, op, "failed to scan store")
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read stores")
	}
	return stores, nil
}

// ensure interface compliance
var (
	_ ReportRepository = (*MemoryReportRepository)(nil)
	_ ReportRepository = (*PostgresReportRepository)(nil)
	_ StoreRepository  = (*MemoryStoreRepository)(nil)
	_ StoreRepository  = (*PostgresStoreRepository)(nil)
)
