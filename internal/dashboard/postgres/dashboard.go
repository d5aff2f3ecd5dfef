package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	dashboardDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/dashboard"
	"github.com/frahmantamala/bizanalytics/internal/dashboard"
	"gorm.io/gorm"
)

// DashboardRepository implements dashboard.RepositoryAPI using GORM.
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) Create(ctx context.Context, d *dashboard.Dashboard) error {
	model, err := dashboard.ToDataModel(d)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *DashboardRepository) GetByID(ctx context.Context, id string) (*dashboard.Dashboard, error) {
	var model dashboardDatamodel.Dashboard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDashboardNotFound
		}
		return nil, err
	}
	return dashboard.FromDataModel(&model)
}

func (r *DashboardRepository) ListForUser(ctx context.Context, userID, companyID string) ([]*dashboard.Dashboard, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND is_template = ?", userID, false)
	if companyID != "" {
		q = q.Where("company_id = ?", companyID)
	}

	var models []dashboardDatamodel.Dashboard
	err := q.Order("is_default DESC").
		Order("last_viewed_at DESC NULLS LAST").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromModels(models)
}

func (r *DashboardRepository) ListTemplates(ctx context.Context, category string) ([]*dashboard.Dashboard, error) {
	q := r.db.WithContext(ctx).Where("is_template = ?", true)
	if category != "" {
		q = q.Where("template_category = ?", category)
	}

	var models []dashboardDatamodel.Dashboard
	if err := q.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return fromModels(models)
}

func fromModels(models []dashboardDatamodel.Dashboard) ([]*dashboard.Dashboard, error) {
	out := make([]*dashboard.Dashboard, 0, len(models))
	for i := range models {
		d, err := dashboard.FromDataModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Save is a compare-and-swap on version. A miss is reported as a stale write
// when the row still exists.
func (r *DashboardRepository) Save(ctx context.Context, d *dashboard.Dashboard) error {
	model, err := dashboard.ToDataModel(d)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&dashboardDatamodel.Dashboard{}).
		Where("id = ? AND version = ?", d.ID, d.Version).
		Updates(map[string]interface{}{
			"name":              model.Name,
			"description":       model.Description,
			"type":              model.Type,
			"widgets":           model.Widgets,
			"layout":            model.Layout,
			"theme":             model.Theme,
			"shared_with":       model.SharedWith,
			"tags":              model.Tags,
			"is_default":        model.IsDefault,
			"template_category": model.TemplateCategory,
			"version":           d.Version + 1,
			"updated_at":        model.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&dashboardDatamodel.Dashboard{}).Where("id = ?", d.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrDashboardNotFound
		}
		return internal.ErrStaleWrite
	}

	d.Version++
	return nil
}

func (r *DashboardRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&dashboardDatamodel.Dashboard{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrDashboardNotFound
	}
	return nil
}

// IncrementView bumps the counter in place without touching version.
func (r *DashboardRepository) IncrementView(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&dashboardDatamodel.Dashboard{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"view_count":     gorm.Expr("view_count + ?", 1),
			"last_viewed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrDashboardNotFound
	}
	return nil
}

// CountByCompany counts the company's own dashboards; templates are excluded.
func (r *DashboardRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dashboardDatamodel.Dashboard{}).
		Where("company_id = ? AND is_template = ?", companyID, false).
		Count(&count).Error
	return count, err
}
