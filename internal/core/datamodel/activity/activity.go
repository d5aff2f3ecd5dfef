package activity

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityLog struct {
	ID        string            `gorm:"primaryKey;type:varchar(36)"`
	CompanyID string            `gorm:"column:company_id;type:varchar(36);index"`
	UserID    string            `gorm:"column:user_id;type:varchar(36);index"`
	Action    string            `gorm:"column:action;not null"`
	Category  string            `gorm:"column:category;not null"`
	Details   datatypes.JSONMap `gorm:"column:details"`
	IPAddress string            `gorm:"column:ip_address"`
	UserAgent string            `gorm:"column:user_agent"`
	Status    string            `gorm:"column:status;not null;default:success"`
	CreatedAt time.Time         `gorm:"column:created_at;index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
