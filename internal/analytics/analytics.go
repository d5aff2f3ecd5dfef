package analytics

import (
	"time"

	analyticsDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/analytics"
	"github.com/shopspring/decimal"
)

const (
	DefaultDays  = 30
	MaxDays      = 365
	DefaultLimit = 100
	MaxLimit     = 1000
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type Snapshot struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"companyId"`
	Metric     string          `json:"metric"`
	Value      decimal.Decimal `json:"value"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// Window is the half-open interval [From, To).
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// windowsEndingAt returns the window of days ending at now and the window of equal length before it.
func windowsEndingAt(now time.Time, days int) (current, previous Window) {
	span := time.Duration(days) * 24 * time.Hour
	current = Window{From: now.Add(-span), To: now}
	previous = Window{From: now.Add(-2 * span), To: current.From}
	return current, previous
}

// KPI compares a metric's total in the current window with the window before it.
// ChangeRate is a percentage rounded to two places and nil when there is nothing to compare with.
type KPI struct {
	Metric     string           `json:"metric"`
	Current    decimal.Decimal  `json:"current"`
	Previous   decimal.Decimal  `json:"previous"`
	Change     decimal.Decimal  `json:"change"`
	ChangeRate *decimal.Decimal `json:"changeRate"`
	Trend      Trend            `json:"trend"`
}

var hundred = decimal.NewFromInt(100)

func NewKPI(metric string, current, previous decimal.Decimal) KPI {
	k := KPI{
		Metric:   metric,
		Current:  current,
		Previous: previous,
		Change:   current.Sub(previous),
		Trend:    TrendStable,
	}
	if !previous.IsZero() {
		rate := k.Change.Div(previous.Abs()).Mul(hundred).Round(2)
		k.ChangeRate = &rate
	}
	switch k.Change.Sign() {
	case 1:
		k.Trend = TrendUp
	case -1:
		k.Trend = TrendDown
	}
	return k
}

type Summary struct {
	Days     int    `json:"days"`
	Current  Window `json:"current"`
	Previous Window `json:"previous"`
	KPIs     []KPI  `json:"kpis"`
	HasData  bool   `json:"hasData"`
}

func FromDataModel(m analyticsDatamodel.MetricSnapshot) Snapshot {
	return Snapshot{
		ID:         m.ID,
		CompanyID:  m.CompanyID,
		Metric:     m.Metric,
		Value:      m.Value,
		RecordedAt: m.RecordedAt,
	}
}
