package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	userDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/user"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.RepositoryAPI using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*user.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *UserRepository) MarkActive(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND active = ?", id, false).
		Updates(map[string]interface{}{"active": true, "last_active_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("last_active_at", at).Error
	return false, err
}

func (r *UserRepository) MarkInactiveBefore(ctx context.Context, cutoff time.Time) ([]*user.User, error) {
	var stale []userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("active = ? AND (last_active_at IS NULL OR last_active_at < ?)", true, cutoff).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}

	changed := make([]*user.User, 0, len(stale))
	for i := range stale {
		// re-check the cutoff so a request landing mid-sweep keeps the user online
		res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
			Where("id = ? AND active = ? AND (last_active_at IS NULL OR last_active_at < ?)", stale[i].ID, true, cutoff).
			Update("active", false)
		if res.Error != nil {
			return changed, res.Error
		}
		if res.RowsAffected > 0 {
			stale[i].Active = false
			changed = append(changed, user.FromDataModel(&stale[i]))
		}
	}
	return changed, nil
}

func (r *UserRepository) SetCompany(ctx context.Context, id, companyID string) error {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("company_id", companyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
