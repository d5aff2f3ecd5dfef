package company

import (
	"time"

	"gorm.io/datatypes"
)

type Company struct {
	ID                    string                      `gorm:"primaryKey;type:varchar(36)"`
	Name                  string                      `gorm:"column:name;not null"`
	Email                 string                      `gorm:"column:email;uniqueIndex;not null"`
	Industry              string                      `gorm:"column:industry;not null"`
	Size                  string                      `gorm:"column:size;not null"`
	Website               string                      `gorm:"column:website"`
	Phone                 string                      `gorm:"column:phone"`
	Address               datatypes.JSONMap           `gorm:"column:address"`
	OwnerID               string                      `gorm:"column:owner_id;type:varchar(36);uniqueIndex;not null"`
	Plan                  string                      `gorm:"column:subscription_plan;not null;default:free"`
	SubscriptionExpiresAt time.Time                   `gorm:"column:subscription_expires_at;not null"`
	Features              datatypes.JSONSlice[string] `gorm:"column:subscription_features"`
	Settings              datatypes.JSONMap           `gorm:"column:settings"`
	Statistics            datatypes.JSONMap           `gorm:"column:statistics"`
	IsActive              bool                        `gorm:"column:is_active;not null;default:true"`
	Members               []Member                    `gorm:"foreignKey:CompanyID"`
	CreatedAt             time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}

// Member rows are keyed by (company_id, user_id), which keeps a user unique per company.
type Member struct {
	CompanyID   string                      `gorm:"primaryKey;type:varchar(36)"`
	UserID      string                      `gorm:"primaryKey;type:varchar(36);index"`
	Username    string                      `gorm:"column:username"`
	Email       string                      `gorm:"column:email"`
	Role        string                      `gorm:"column:role;not null"`
	Permissions datatypes.JSONSlice[string] `gorm:"column:permissions"`
	Position    int                         `gorm:"column:position;not null;default:0"`
	JoinedAt    time.Time                   `gorm:"column:joined_at;not null"`
}

func (Member) TableName() string {
	return "company_members"
}
