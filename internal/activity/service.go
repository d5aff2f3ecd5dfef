package activity

import (
	"context"
	"fmt"
	"log/slog"

	activityDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/activity"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

type RepositoryAPI interface {
	Create(ctx context.Context, log *activityDatamodel.ActivityLog) error
	GetRecent(ctx context.Context, companyID string, limit int) ([]*activityDatamodel.ActivityLog, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetRecent returns the newest entries for a company, clamping limit to [1, MaxRecentLimit].
func (s *Service) GetRecent(ctx context.Context, companyID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	rows, err := s.repo.GetRecent(ctx, companyID, limit)
	if err != nil {
		s.logger.Error("failed to load recent activity", "company_id", companyID, "error", err)
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDataModel(row))
	}
	return entries, nil
}
