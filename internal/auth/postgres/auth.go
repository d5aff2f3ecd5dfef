package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	userDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/user"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.UserRepository {
	return &Repository{db: db}
}

func (r *Repository) GetByLogin(ctx context.Context, login string) (*user.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) OR username = ?", login, login).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *Repository) FindConflict(ctx context.Context, email, username string, phone *string) error {
	checks := []struct {
		column string
		value  interface{}
		err    *internal.AppError
	}{
		{"LOWER(email) = LOWER(?)", email, internal.ErrDuplicateEmail},
		{"username = ?", username, internal.ErrDuplicateUsername},
	}
	if phone != nil {
		checks = append(checks, struct {
			column string
			value  interface{}
			err    *internal.AppError
		}{"phone = ?", *phone, internal.ErrDuplicatePhone})
	}

	for _, c := range checks {
		var count int64
		if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where(c.column, c.value).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return c.err
		}
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, u *user.User) error {
	if err := r.db.WithContext(ctx).Create(user.ToDataModel(u)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateEmail.WithCause(err)
		}
		return err
	}
	return nil
}
