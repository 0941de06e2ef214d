package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	tixerrors "tixcli/internal/errors"
	"tixcli/pkg/contracts/domain"
)

// BigQueryWarehouse stores snapshots in a BigQuery table via the
// streaming insert API. Streaming inserts accept or reject rows
// individually, which maps directly onto WriteResult's partial-failure
// contract, and the per-row InsertId gives best-effort deduplication on
// top of the deterministic snapshot_id.
type BigQueryWarehouse struct {
	service *bigquery.Service
	logger  *slog.Logger

	projectID string
	dataset   string
	table     string
}

// BigQueryOptions configure the target table.
type BigQueryOptions struct {
	ProjectID       string
	Dataset         string
	Table           string
	CredentialsFile string
}

// NewBigQueryWarehouse builds a warehouse backed by the given table.
// CredentialsFile is optional; without it the client falls back to
// application default credentials.
func NewBigQueryWarehouse(ctx context.Context, logger *slog.Logger, opts BigQueryOptions) (*BigQueryWarehouse, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	service, err := bigquery.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, tixerrors.NewConfiguration("failed to create bigquery service", err)
	}
	return &BigQueryWarehouse{
		service:   service,
		logger:    logger,
		projectID: opts.ProjectID,
		dataset:   opts.Dataset,
		table:     opts.Table,
	}, nil
}

func (w *BigQueryWarehouse) tableRef() string {
	return fmt.Sprintf("`%s.%s.%s`", w.projectID, w.dataset, w.table)
}

// ExistingSnapshotIDs queries the table for all snapshot IDs in the
// given fiscal years, paging through the full result set.
func (w *BigQueryWarehouse) ExistingSnapshotIDs(ctx context.Context, fiscalYears []string) (map[string]struct{}, error) {
	if err := validateFiscalYears(fiscalYears); err != nil {
		return nil, tixerrors.NewConfiguration("existing snapshot lookup", err)
	}

	query := fmt.Sprintf("SELECT snapshot_id FROM %s WHERE fiscal_year IN (%s)",
		w.tableRef(), quoteLabels(fiscalYears))
	useLegacySQL := false
	resp, err := w.service.Jobs.Query(w.projectID, &bigquery.QueryRequest{
		Query:           query,
		UseLegacySql:    &useLegacySQL,
		ForceSendFields: []string{"UseLegacySql"},
	}).Context(ctx).Do()
	if err != nil {
		return nil, tixerrors.NewWarehouseWriteFailure("snapshot id query failed", err, true)
	}

	ids := make(map[string]struct{})
	collect := func(rows []*bigquery.TableRow) {
		for _, row := range rows {
			if len(row.F) == 0 {
				continue
			}
			if id, ok := row.F[0].V.(string); ok {
				ids[id] = struct{}{}
			}
		}
	}
	collect(resp.Rows)

	jobID := resp.JobReference.JobId
	pageToken := resp.PageToken
	complete := resp.JobComplete
	for !complete || pageToken != "" {
		page, err := w.service.Jobs.GetQueryResults(w.projectID, jobID).
			PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, tixerrors.NewWarehouseWriteFailure("snapshot id query page failed", err, true)
		}
		complete = page.JobComplete
		if !complete {
			time.Sleep(500 * time.Millisecond)
			continue
		}
		collect(page.Rows)
		pageToken = page.PageToken
	}
	return ids, nil
}

// InsertSnapshots streams the batch into the table. SkipInvalidRows
// keeps one bad row from sinking its neighbors; the rejected rows come
// back in InsertErrors and are reported as per-row failures.
func (w *BigQueryWarehouse) InsertSnapshots(ctx context.Context, snapshots []*domain.PerformanceSnapshot) (*WriteResult, error) {
	if len(snapshots) == 0 {
		return &WriteResult{}, nil
	}

	rows := make([]*bigquery.TableDataInsertAllRequestRows, len(snapshots))
	for i, s := range snapshots {
		rows[i] = &bigquery.TableDataInsertAllRequestRows{
			InsertId: s.SnapshotID,
			Json:     snapshotJSON(s),
		}
	}

	resp, err := w.service.Tabledata.InsertAll(w.projectID, w.dataset, w.table,
		&bigquery.TableDataInsertAllRequest{
			SkipInvalidRows: true,
			Rows:            rows,
		}).Context(ctx).Do()
	if err != nil {
		return nil, tixerrors.NewWarehouseWriteFailure("streaming insert failed", err, true)
	}

	result := &WriteResult{Inserted: len(snapshots) - len(resp.InsertErrors)}
	for _, ie := range resp.InsertErrors {
		idx := int(ie.Index)
		failure := RowFailure{Index: idx}
		if idx >= 0 && idx < len(snapshots) {
			failure.SnapshotID = snapshots[idx].SnapshotID
		}
		reasons := make([]string, 0, len(ie.Errors))
		for _, e := range ie.Errors {
			reasons = append(reasons, fmt.Sprintf("%s: %s", e.Reason, e.Message))
		}
		failure.Reason = strings.Join(reasons, "; ")
		result.Failures = append(result.Failures, failure)
	}
	return result, nil
}

// DeleteFiscalYears removes the given fiscal years with a DML DELETE.
// The row count is only available once the query job completes, so the
// call polls to completion.
func (w *BigQueryWarehouse) DeleteFiscalYears(ctx context.Context, fiscalYears []string) (int64, error) {
	if err := validateFiscalYears(fiscalYears); err != nil {
		return 0, tixerrors.NewConfiguration("fiscal year delete", err)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE fiscal_year IN (%s)",
		w.tableRef(), quoteLabels(fiscalYears))
	useLegacySQL := false
	resp, err := w.service.Jobs.Query(w.projectID, &bigquery.QueryRequest{
		Query:           query,
		UseLegacySql:    &useLegacySQL,
		ForceSendFields: []string{"UseLegacySql"},
	}).Context(ctx).Do()
	if err != nil {
		return 0, tixerrors.NewWarehouseWriteFailure("fiscal year delete failed", err, true)
	}

	complete := resp.JobComplete
	affected := resp.NumDmlAffectedRows
	for !complete {
		page, err := w.service.Jobs.GetQueryResults(w.projectID, resp.JobReference.JobId).
			Context(ctx).Do()
		if err != nil {
			return 0, tixerrors.NewWarehouseWriteFailure("fiscal year delete poll failed", err, true)
		}
		complete = page.JobComplete
		affected = page.NumDmlAffectedRows
		if !complete {
			time.Sleep(500 * time.Millisecond)
		}
	}
	w.logger.Info("deleted fiscal years from warehouse",
		slog.String("fiscal_years", strings.Join(fiscalYears, ",")),
		slog.Int64("rows", affected))
	return affected, nil
}

func (w *BigQueryWarehouse) Close() error { return nil }

// snapshotJSON builds the streaming-insert row. Nil channel figures are
// omitted so the table keeps NULL, preserving the distinction between
// "channel not exposed" and zero.
func snapshotJSON(s *domain.PerformanceSnapshot) map[string]bigquery.JsonValue {
	row := map[string]bigquery.JsonValue{
		"snapshot_id":      s.SnapshotID,
		"performance_code": s.PerformanceCode,
		"title":            s.Title,
		"series":           s.Series,
		"snapshot_date":    s.SnapshotDate.Format("2006-01-02"),
		"performance_date": s.PerformanceDate.Format("2006-01-02"),
		"fiscal_year":      s.FiscalYear,
		"fiscal_week":      s.FiscalWeek,
		"iso_week":         s.ISOWeek,
		"total_tickets":    s.TotalTickets,
		"total_revenue":    s.TotalRevenue,
		"source":           s.Source,
		"corrected":        s.Corrected,
	}
	if s.SingleTickets != nil {
		row["single_tickets"] = *s.SingleTickets
	}
	if s.SingleRevenue != nil {
		row["single_revenue"] = *s.SingleRevenue
	}
	if s.SubscriptionTickets != nil {
		row["subscription_tickets"] = *s.SubscriptionTickets
	}
	if s.SubscriptionRevenue != nil {
		row["subscription_revenue"] = *s.SubscriptionRevenue
	}
	return row
}

func quoteLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "'" + l + "'"
	}
	return strings.Join(quoted, ", ")
}
