package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricSnapshot is read through sqlx; the gorm tags are only used for seeding and test schemas.
type MetricSnapshot struct {
	ID         string          `db:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID  string          `db:"company_id" gorm:"column:company_id;type:varchar(36);index"`
	Metric     string          `db:"metric" gorm:"column:metric;not null"`
	Value      decimal.Decimal `db:"value" gorm:"column:value;type:numeric(20,4);not null"`
	RecordedAt time.Time       `db:"recorded_at" gorm:"column:recorded_at;index"`
}

func (MetricSnapshot) TableName() string {
	return "metric_snapshots"
}
