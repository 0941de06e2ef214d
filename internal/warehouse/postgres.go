package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tixerrors "tixcli/internal/errors"
	"tixcli/pkg/contracts/domain"
)

// PostgresWarehouse stores snapshots in a Postgres table keyed by
// snapshot_id. Duplicate IDs are skipped with ON CONFLICT DO NOTHING,
// giving the same idempotent-append behavior as the BigQuery backend.
type PostgresWarehouse struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	table  string
}

const insertSnapshotSQL = `
INSERT INTO %s (
	snapshot_id, performance_code, title, series,
	snapshot_date, performance_date, fiscal_year, fiscal_week, iso_week,
	single_tickets, single_revenue, subscription_tickets, subscription_revenue,
	total_tickets, total_revenue, source, corrected
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (snapshot_id) DO NOTHING`

// NewPostgresWarehouse connects to the database and verifies the
// connection before returning.
func NewPostgresWarehouse(ctx context.Context, logger *slog.Logger, databaseURL, table string) (*PostgresWarehouse, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		table = "performance_snapshots"
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, tixerrors.NewConfiguration("invalid database url", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, tixerrors.NewWarehouseWriteFailure("database unreachable", err, true)
	}
	return &PostgresWarehouse{pool: pool, logger: logger, table: table}, nil
}

// ExistingSnapshotIDs loads the stored snapshot IDs for the given
// fiscal years.
func (w *PostgresWarehouse) ExistingSnapshotIDs(ctx context.Context, fiscalYears []string) (map[string]struct{}, error) {
	if err := validateFiscalYears(fiscalYears); err != nil {
		return nil, tixerrors.NewConfiguration("existing snapshot lookup", err)
	}

	query := fmt.Sprintf("SELECT snapshot_id FROM %s WHERE fiscal_year = ANY($1)", w.table)
	rows, err := w.pool.Query(ctx, query, fiscalYears)
	if err != nil {
		return nil, tixerrors.NewWarehouseWriteFailure("snapshot id query failed", err, true)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, tixerrors.NewWarehouseWriteFailure("snapshot id scan failed", err, false)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, tixerrors.NewWarehouseWriteFailure("snapshot id query failed", err, true)
	}
	return ids, nil
}

// InsertSnapshots writes the batch through a pgx pipeline. A failing
// row aborts the pipeline's implicit transaction, so on any batch error
// the rows are retried one at a time to attribute the failure to the
// rows that actually caused it.
func (w *PostgresWarehouse) InsertSnapshots(ctx context.Context, snapshots []*domain.PerformanceSnapshot) (*WriteResult, error) {
	if len(snapshots) == 0 {
		return &WriteResult{}, nil
	}

	query := fmt.Sprintf(insertSnapshotSQL, w.table)
	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(query, insertArgs(s)...)
	}

	br := w.pool.SendBatch(ctx, batch)
	result := &WriteResult{}
	var batchErr error
	for range snapshots {
		tag, err := br.Exec()
		if err != nil {
			batchErr = err
			break
		}
		result.Inserted += int(tag.RowsAffected())
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = closeErr
	}
	if batchErr == nil {
		return result, nil
	}

	w.logger.Warn("batch insert failed, retrying rows individually",
		slog.Int("rows", len(snapshots)),
		slog.String("error", batchErr.Error()))
	return w.insertIndividually(ctx, query, snapshots)
}

func (w *PostgresWarehouse) insertIndividually(ctx context.Context, query string, snapshots []*domain.PerformanceSnapshot) (*WriteResult, error) {
	result := &WriteResult{}
	for i, s := range snapshots {
		tag, err := w.pool.Exec(ctx, query, insertArgs(s)...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, tixerrors.NewWarehouseWriteFailure("insert interrupted", ctx.Err(), true)
			}
			result.Failures = append(result.Failures, RowFailure{
				Index:      i,
				SnapshotID: s.SnapshotID,
				Reason:     err.Error(),
			})
			continue
		}
		result.Inserted += int(tag.RowsAffected())
	}
	return result, nil
}

// DeleteFiscalYears removes all snapshots in the given fiscal years.
func (w *PostgresWarehouse) DeleteFiscalYears(ctx context.Context, fiscalYears []string) (int64, error) {
	if err := validateFiscalYears(fiscalYears); err != nil {
		return 0, tixerrors.NewConfiguration("fiscal year delete", err)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE fiscal_year = ANY($1)", w.table)
	tag, err := w.pool.Exec(ctx, query, fiscalYears)
	if err != nil {
		return 0, tixerrors.NewWarehouseWriteFailure("fiscal year delete failed", err, true)
	}
	w.logger.Info("deleted fiscal years from warehouse",
		slog.String("fiscal_years", strings.Join(fiscalYears, ",")),
		slog.Int64("rows", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func (w *PostgresWarehouse) Close() error {
	w.pool.Close()
	return nil
}

func insertArgs(s *domain.PerformanceSnapshot) []any {
	return []any{
		s.SnapshotID, s.PerformanceCode, s.Title, s.Series,
		s.SnapshotDate, s.PerformanceDate, s.FiscalYear, s.FiscalWeek, s.ISOWeek,
		s.SingleTickets, s.SingleRevenue, s.SubscriptionTickets, s.SubscriptionRevenue,
		s.TotalTickets, s.TotalRevenue, s.Source, s.Corrected,
	}
}
