package dashboard

import (
	"time"

	"gorm.io/datatypes"
)

// Dashboard keeps widgets, sharing, layout and theme as JSON documents on the row.
type Dashboard struct {
	ID               string                      `gorm:"primaryKey;type:varchar(36)"`
	Name             string                      `gorm:"column:name;not null"`
	Description      string                      `gorm:"column:description"`
	UserID           string                      `gorm:"column:user_id;type:varchar(36);index;not null"`
	CompanyID        string                      `gorm:"column:company_id;type:varchar(36);index;not null"`
	Type             string                      `gorm:"column:type;not null;default:personal"`
	Widgets          datatypes.JSON              `gorm:"column:widgets"`
	Layout           datatypes.JSON              `gorm:"column:layout"`
	Theme            datatypes.JSON              `gorm:"column:theme"`
	SharedWith       datatypes.JSON              `gorm:"column:shared_with"`
	Tags             datatypes.JSONSlice[string] `gorm:"column:tags"`
	IsDefault        bool                        `gorm:"column:is_default;not null;default:false"`
	IsTemplate       bool                        `gorm:"column:is_template;not null;default:false;index"`
	TemplateCategory string                      `gorm:"column:template_category"`
	ViewCount        int64                       `gorm:"column:view_count;not null;default:0"`
	LastViewedAt     *time.Time                  `gorm:"column:last_viewed_at"`
	Version          int64                       `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Dashboard) TableName() string {
	return "dashboards"
}
