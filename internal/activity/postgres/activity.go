package postgres

import (
	"context"

	"github.com/frahmantamala/bizanalytics/internal/activity"
	activityDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/activity"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) activity.RepositoryAPI {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, log *activityDatamodel.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ActivityRepository) GetRecent(ctx context.Context, companyID string, limit int) ([]*activityDatamodel.ActivityLog, error) {
	var logs []*activityDatamodel.ActivityLog
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
