package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

type SnapshotQuery struct {
	CompanyID string
	Metric    string
	Window    Window
	Limit     int
}

type RepositoryAPI interface {
	// ListSnapshots returns snapshots in the window, oldest first.
	ListSnapshots(ctx context.Context, q SnapshotQuery) ([]Snapshot, error)
	// TotalsByMetric sums snapshot values per metric over the window.
	TotalsByMetric(ctx context.Context, companyID string, w Window) (map[string]decimal.Decimal, error)
}

type ServiceAPI interface {
	Snapshots(ctx context.Context, companyID, metric string, days, limit int) ([]Snapshot, error)
	KPIs(ctx context.Context, companyID string, days int) (*Summary, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func validateRange(days, limit int) *internal.AppError {
	v := validation.NewValidator()
	v.Field("days", days).MinInt(1, internal.ErrCodeValidationFailed).MaxInt(MaxDays, internal.ErrCodeValidationFailed)
	v.Field("limit", limit).MinInt(1, internal.ErrCodeValidationFailed).MaxInt(MaxLimit, internal.ErrCodeValidationFailed)
	return v.Validate()
}

// Snapshots lists raw snapshots recorded in the last days. Zero values pick the defaults.
func (s *Service) Snapshots(ctx context.Context, companyID, metric string, days, limit int) ([]Snapshot, error) {
	if days == 0 {
		days = DefaultDays
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if err := validateRange(days, limit); err != nil {
		return nil, err
	}

	current, _ := windowsEndingAt(s.now().UTC(), days)
	list, err := s.repo.ListSnapshots(ctx, SnapshotQuery{
		CompanyID: companyID,
		Metric:    metric,
		Window:    current,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if list == nil {
		list = []Snapshot{}
	}
	return list, nil
}

// KPIs totals every metric over the last days and compares it with the preceding
// period of the same length. Metrics seen in either period are reported.
func (s *Service) KPIs(ctx context.Context, companyID string, days int) (*Summary, error) {
	if days == 0 {
		days = DefaultDays
	}
	if err := validateRange(days, DefaultLimit); err != nil {
		return nil, err
	}

	current, previous := windowsEndingAt(s.now().UTC(), days)
	now, err := s.repo.TotalsByMetric(ctx, companyID, current)
	if err != nil {
		return nil, fmt.Errorf("failed to total current period: %w", err)
	}
	before, err := s.repo.TotalsByMetric(ctx, companyID, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to total previous period: %w", err)
	}

	metrics := make(map[string]struct{}, len(now)+len(before))
	for m := range now {
		metrics[m] = struct{}{}
	}
	for m := range before {
		metrics[m] = struct{}{}
	}
	names := make([]string, 0, len(metrics))
	for m := range metrics {
		names = append(names, m)
	}
	sort.Strings(names)

	kpis := make([]KPI, 0, len(names))
	for _, m := range names {
		kpis = append(kpis, NewKPI(m, now[m], before[m]))
	}

	s.logger.Debug("kpis computed", "company_id", companyID, "days", days, "metrics", len(kpis))
	return &Summary{
		Days:     days,
		Current:  current,
		Previous: previous,
		KPIs:     kpis,
		HasData:  len(now) > 0,
	}, nil
}
