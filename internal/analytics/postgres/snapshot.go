package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/bizanalytics/internal/analytics"
	analyticsDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/analytics"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// SnapshotRepository reads metric snapshots with plain SQL. Queries are written
// with ? placeholders and rebound for the driver behind db.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) ListSnapshots(ctx context.Context, q analytics.SnapshotQuery) ([]analytics.Snapshot, error) {
	query := `
	SELECT id, company_id, metric, value, recorded_at
	FROM metric_snapshots
	WHERE company_id = ?
	  AND recorded_at >= ?
	  AND recorded_at < ?`
	args := []interface{}{q.CompanyID, q.Window.From, q.Window.To}
	if q.Metric != "" {
		query += ` AND metric = ?`
		args = append(args, q.Metric)
	}
	query += ` ORDER BY recorded_at ASC, metric ASC LIMIT ?`
	args = append(args, q.Limit)

	var rows []analyticsDatamodel.MetricSnapshot
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("analytics.ListSnapshots: %w", err)
	}

	out := make([]analytics.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, analytics.FromDataModel(row))
	}
	return out, nil
}

type metricTotal struct {
	Metric string          `db:"metric"`
	Total  decimal.Decimal `db:"total"`
}

func (r *SnapshotRepository) TotalsByMetric(ctx context.Context, companyID string, w analytics.Window) (map[string]decimal.Decimal, error) {
	const query = `
	SELECT metric, COALESCE(SUM(value), 0) AS total
	FROM metric_snapshots
	WHERE company_id = ?
	  AND recorded_at >= ?
	  AND recorded_at < ?
	GROUP BY metric`

	var rows []metricTotal
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), companyID, w.From, w.To); err != nil {
		return nil, fmt.Errorf("analytics.TotalsByMetric: %w", err)
	}

	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Metric] = row.Total
	}
	return totals, nil
}

// Ping is used by the health check.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
