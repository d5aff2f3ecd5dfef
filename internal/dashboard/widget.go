package dashboard

import (
	"encoding/json"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/core/common/validation"
)

type WidgetType string

const (
	WidgetKPI           WidgetType = "kpi"
	WidgetChart         WidgetType = "chart"
	WidgetTable         WidgetType = "table"
	WidgetMap           WidgetType = "map"
	WidgetCalendar      WidgetType = "calendar"
	WidgetProgress      WidgetType = "progress"
	WidgetList          WidgetType = "list"
	WidgetAIInsights    WidgetType = "ai-insights"
	WidgetNotifications WidgetType = "notifications"
	WidgetCustom        WidgetType = "custom"
)

var WidgetTypes = []string{
	string(WidgetKPI), string(WidgetChart), string(WidgetTable), string(WidgetMap),
	string(WidgetCalendar), string(WidgetProgress), string(WidgetList),
	string(WidgetAIInsights), string(WidgetNotifications), string(WidgetCustom),
}

const (
	defaultRefreshInterval = 300
	defaultWidgetW         = 4
	defaultWidgetH         = 3
	defaultMinSize         = 2
	maxTitleLength         = 100
)

type Filter struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

type WidgetConfig struct {
	ChartType       string                 `json:"chartType,omitempty"`
	DataSource      string                 `json:"dataSource,omitempty"`
	RefreshInterval int                    `json:"refreshInterval"`
	DateRange       string                 `json:"dateRange,omitempty"`
	Filters         []Filter               `json:"filters,omitempty"`
	Metrics         []string               `json:"metrics,omitempty"`
	Dimensions      []string               `json:"dimensions,omitempty"`
	Colors          []string               `json:"colors,omitempty"`
	ShowLegend      *bool                  `json:"showLegend"`
	ShowGrid        *bool                  `json:"showGrid"`
	ShowTooltip     *bool                  `json:"showTooltip"`
	CustomSettings  map[string]interface{} `json:"customSettings,omitempty"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

type Widget struct {
	ID        string       `json:"id"`
	Type      WidgetType   `json:"type"`
	Title     string       `json:"title"`
	Config    WidgetConfig `json:"config"`
	Position  Position     `json:"position"`
	MinSize   Size         `json:"minSize"`
	IsVisible *bool        `json:"isVisible"`
}

func boolPtr(b bool) *bool { return &b }

func (w *Widget) applyDefaults() {
	if w.Config.RefreshInterval <= 0 {
		w.Config.RefreshInterval = defaultRefreshInterval
	}
	if w.Config.ShowLegend == nil {
		w.Config.ShowLegend = boolPtr(true)
	}
	if w.Config.ShowGrid == nil {
		w.Config.ShowGrid = boolPtr(true)
	}
	if w.Config.ShowTooltip == nil {
		w.Config.ShowTooltip = boolPtr(true)
	}
	if w.Position.W <= 0 {
		w.Position.W = defaultWidgetW
	}
	if w.Position.H <= 0 {
		w.Position.H = defaultWidgetH
	}
	if w.MinSize.W <= 0 {
		w.MinSize.W = defaultMinSize
	}
	if w.MinSize.H <= 0 {
		w.MinSize.H = defaultMinSize
	}
	if w.IsVisible == nil {
		w.IsVisible = boolPtr(true)
	}
}

func (w Widget) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("type", string(w.Type)).Required().OneOf(internal.ErrCodeInvalidWidget, WidgetTypes...)
	v.Field("title", w.Title).Required().MaxLength(maxTitleLength)
	v.Field("position.x", w.Position.X).MinInt(0, internal.ErrCodeInvalidWidget)
	v.Field("position.y", w.Position.Y).MinInt(0, internal.ErrCodeInvalidWidget)
	v.Field("position.w", w.Position.W).MinInt(0, internal.ErrCodeInvalidWidget)
	v.Field("position.h", w.Position.H).MinInt(0, internal.ErrCodeInvalidWidget)
	v.Field("config.refreshInterval", w.Config.RefreshInterval).MinInt(0, internal.ErrCodeInvalidWidget)
	return v.Validate()
}

// WidgetPatch carries the fields of an update; nil fields are left untouched.
type WidgetPatch struct {
	Type      *WidgetType   `json:"type"`
	Title     *string       `json:"title"`
	Config    *WidgetConfig `json:"config"`
	Position  *Position     `json:"position"`
	MinSize   *Size         `json:"minSize"`
	IsVisible *bool         `json:"isVisible"`
}

func (p WidgetPatch) Validate() *internal.AppError {
	v := validation.NewValidator()
	if p.Type != nil {
		v.Field("type", string(*p.Type)).Required().OneOf(internal.ErrCodeInvalidWidget, WidgetTypes...)
	}
	if p.Title != nil {
		v.Field("title", *p.Title).Required().MaxLength(maxTitleLength)
	}
	if p.Position != nil {
		v.Field("position.x", p.Position.X).MinInt(0, internal.ErrCodeInvalidWidget)
		v.Field("position.y", p.Position.Y).MinInt(0, internal.ErrCodeInvalidWidget)
	}
	return v.Validate()
}

// apply merges the top-level fields of p into w.
func (p WidgetPatch) apply(w *Widget) {
	if p.Type != nil {
		w.Type = *p.Type
	}
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Config != nil {
		w.Config = *p.Config
	}
	if p.Position != nil {
		w.Position = *p.Position
	}
	if p.MinSize != nil {
		w.MinSize = *p.MinSize
	}
	if p.IsVisible != nil {
		w.IsVisible = boolPtr(*p.IsVisible)
	}
	w.applyDefaults()
}

// copyWidgets returns a deep copy; widgets hold free-form maps so a JSON round trip is the only complete copy.
func copyWidgets(in []Widget) ([]Widget, error) {
	out := []Widget{}
	if len(in) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
