package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/company"
	companyDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/company"
	"gorm.io/gorm"
)

var errCompanyEmailTaken = internal.NewConflictError("Company email already registered", internal.ErrCodeDuplicateEmail)

// CompanyRepository implements company.RepositoryAPI using GORM.
// Memberships live in company_members keyed by (company_id, user_id).
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.RepositoryAPI {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	model := company.ToDataModel(c)
	members := model.Members
	model.Members = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return r.classifyConflict(tx, model)
			}
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}

func (r *CompanyRepository) classifyConflict(tx *gorm.DB, model *companyDatamodel.Company) error {
	var count int64
	if err := tx.Model(&companyDatamodel.Company{}).Where("owner_id = ?", model.OwnerID).Count(&count).Error; err == nil && count > 0 {
		return internal.ErrCompanyOwned
	}
	return errCompanyEmailTaken
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*company.Company, error) {
	var c companyDatamodel.Company
	err := r.withMembers(r.db.WithContext(ctx)).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCompanyNotFound
		}
		return nil, err
	}
	return company.FromDataModel(&c), nil
}

func (r *CompanyRepository) withMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, joined_at ASC")
	})
}

func (r *CompanyRepository) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&companyDatamodel.Company{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count > 0, err
}

func (r *CompanyRepository) ListForUser(ctx context.Context, userID string) ([]*company.Company, error) {
	var models []companyDatamodel.Company
	err := r.withMembers(r.db.WithContext(ctx)).
		Where("id IN (?)", r.db.Model(&companyDatamodel.Member{}).Select("company_id").Where("user_id = ?", userID)).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]*company.Company, len(models))
	for i := range models {
		out[i] = company.FromDataModel(&models[i])
	}
	return out, nil
}

// Update writes the editable columns; ownership and membership are never touched here.
func (r *CompanyRepository) Update(ctx context.Context, c *company.Company) error {
	model := company.ToDataModel(c)
	res := r.db.WithContext(ctx).Model(&companyDatamodel.Company{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"industry":   model.Industry,
			"size":       model.Size,
			"website":    model.Website,
			"phone":      model.Phone,
			"address":    model.Address,
			"settings":   model.Settings,
			"updated_at": model.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrCompanyNotFound
	}
	return nil
}

func (r *CompanyRepository) AddMember(ctx context.Context, companyID string, m company.Membership, position int) error {
	row := company.MemberToDataModel(companyID, m, position)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *CompanyRepository) RemoveMember(ctx context.Context, companyID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Delete(&companyDatamodel.Member{})
	return res.RowsAffected > 0, res.Error
}
