package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	dashboardDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/dashboard"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Type string

const (
	TypePersonal Type = "personal"
	TypeShared   Type = "shared"
	TypeCompany  Type = "company"
)

var Types = []string{string(TypePersonal), string(TypeShared), string(TypeCompany)}

// Action is what a caller wants to do with a dashboard.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

type SharePermission string

const (
	ShareView SharePermission = "view"
	ShareEdit SharePermission = "edit"
)

var TemplateCategories = []string{"sales", "marketing", "finance", "hr", "operations", "executive", "custom"}

const DefaultName = "My Dashboard"

type Breakpoints struct {
	LG int `json:"lg"`
	MD int `json:"md"`
	SM int `json:"sm"`
	XS int `json:"xs"`
}

type Layout struct {
	Cols        int         `json:"cols"`
	RowHeight   int         `json:"rowHeight"`
	Breakpoints Breakpoints `json:"breakpoints"`
}

func DefaultLayout() Layout {
	return Layout{
		Cols:        12,
		RowHeight:   100,
		Breakpoints: Breakpoints{LG: 1200, MD: 996, SM: 768, XS: 480},
	}
}

type Theme struct {
	Mode            string `json:"mode"`
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

func DefaultTheme() Theme {
	return Theme{Mode: "light", PrimaryColor: "#3b82f6"}
}

type SharedAccess struct {
	UserID     string          `json:"userId"`
	Permission SharePermission `json:"permission"`
	SharedAt   time.Time       `json:"sharedAt"`
}

// Dashboard is the aggregate root for widgets and sharing. Callers mutate it
// only through its methods and persist it with the version they loaded.
type Dashboard struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	UserID           string         `json:"userId"`
	CompanyID        string         `json:"companyId"`
	Type             Type           `json:"type"`
	Widgets          []Widget       `json:"widgets"`
	Layout           Layout         `json:"layout"`
	Theme            Theme          `json:"theme"`
	SharedWith       []SharedAccess `json:"sharedWith"`
	IsDefault        bool           `json:"isDefault"`
	IsTemplate       bool           `json:"isTemplate"`
	TemplateCategory string         `json:"templateCategory,omitempty"`
	Tags             []string       `json:"tags"`
	ViewCount        int64          `json:"viewCount"`
	LastViewedAt     *time.Time     `json:"lastViewedAt,omitempty"`
	Version          int64          `json:"version"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func New(userID, companyID, name string, now time.Time) *Dashboard {
	if name == "" {
		name = DefaultName
	}
	return &Dashboard{
		ID:         uuid.NewString(),
		Name:       name,
		UserID:     userID,
		CompanyID:  companyID,
		Type:       TypePersonal,
		Widgets:    []Widget{},
		Layout:     DefaultLayout(),
		Theme:      DefaultTheme(),
		SharedWith: []SharedAccess{},
		Tags:       []string{},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (d *Dashboard) shareOf(userID string) (SharedAccess, bool) {
	for _, s := range d.SharedWith {
		if s.UserID == userID {
			return s, true
		}
	}
	return SharedAccess{}, false
}

// CanDo decides dashboard access from ownership and sharing alone.
// companyMember only matters for viewing company-wide dashboards.
// Sharing never grants delete or share. Templates are readable by anyone
// signed in and are never modified; they exist to be cloned.
func (d *Dashboard) CanDo(userID string, action Action, companyMember bool) bool {
	if userID == "" {
		return false
	}
	if d.IsTemplate {
		return action == ActionView
	}
	isOwner := d.UserID == userID
	share, shared := d.shareOf(userID)

	switch action {
	case ActionView:
		return isOwner || shared || (d.Type == TypeCompany && companyMember)
	case ActionEdit:
		return isOwner || (shared && share.Permission == ShareEdit)
	case ActionDelete, ActionShare:
		return isOwner
	}
	return false
}

func (d *Dashboard) Widget(id string) (Widget, bool) {
	for _, w := range d.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

func (d *Dashboard) hasWidget(id string) bool {
	_, ok := d.Widget(id)
	return ok
}

// AddWidget validates w, gives it an id unique within the dashboard and appends it.
func (d *Dashboard) AddWidget(w Widget) (Widget, error) {
	if err := w.Validate(); err != nil {
		return Widget{}, err
	}
	for w.ID == "" || d.hasWidget(w.ID) {
		w.ID = uuid.NewString()
	}
	w.applyDefaults()
	d.Widgets = append(d.Widgets, w)
	return w, nil
}

// UpdateWidget merges patch into the widget with id. A missing id is a no-op and returns false.
func (d *Dashboard) UpdateWidget(id string, patch WidgetPatch) (bool, error) {
	if err := patch.Validate(); err != nil {
		return false, err
	}
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			patch.apply(&d.Widgets[i])
			return true, nil
		}
	}
	return false, nil
}

// RemoveWidget is idempotent; it reports whether anything was removed.
func (d *Dashboard) RemoveWidget(id string) bool {
	kept := d.Widgets[:0]
	removed := false
	for _, w := range d.Widgets {
		if w.ID == id {
			removed = true
			continue
		}
		kept = append(kept, w)
	}
	d.Widgets = kept
	return removed
}

// Share adds an entry for every user not already shared with. Existing entries
// keep their permission and the owner is skipped. It returns the users added.
func (d *Dashboard) Share(userIDs []string, permission SharePermission, now time.Time) ([]string, error) {
	if permission == "" {
		permission = ShareView
	}
	if permission != ShareView && permission != ShareEdit {
		return nil, internal.NewValidationFieldError("permission", "permission must be one of: view, edit", internal.ErrCodeValidationFailed)
	}

	var added []string
	for _, id := range userIDs {
		if id == "" || id == d.UserID {
			continue
		}
		if _, ok := d.shareOf(id); ok {
			continue
		}
		d.SharedWith = append(d.SharedWith, SharedAccess{UserID: id, Permission: permission, SharedAt: now})
		added = append(added, id)
	}
	return added, nil
}

func (d *Dashboard) RecordView(now time.Time) {
	d.ViewCount++
	d.LastViewedAt = &now
}

// Clone copies content into a fresh personal dashboard for newOwner. Sharing,
// template flags and view statistics start over.
func (d *Dashboard) Clone(newOwnerID, newCompanyID, name string, now time.Time) (*Dashboard, error) {
	if name == "" {
		name = fmt.Sprintf("%s (Copy)", d.Name)
	}
	widgets, err := copyWidgets(d.Widgets)
	if err != nil {
		return nil, fmt.Errorf("copy widgets of %s: %w", d.ID, err)
	}
	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)

	return &Dashboard{
		ID:               uuid.NewString(),
		Name:             name,
		Description:      d.Description,
		UserID:           newOwnerID,
		CompanyID:        newCompanyID,
		Type:             TypePersonal,
		Widgets:          widgets,
		Layout:           d.Layout,
		Theme:            d.Theme,
		SharedWith:       []SharedAccess{},
		IsDefault:        false,
		IsTemplate:       false,
		TemplateCategory: d.TemplateCategory,
		Tags:             tags,
		ViewCount:        0,
		LastViewedAt:     nil,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type ctxKey struct{}

func ContextWith(ctx context.Context, d *Dashboard) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

func FromContext(ctx context.Context) (*Dashboard, bool) {
	d, ok := ctx.Value(ctxKey{}).(*Dashboard)
	return d, ok && d != nil
}

func ToDataModel(d *Dashboard) (*dashboardDatamodel.Dashboard, error) {
	widgets, err := json.Marshal(d.Widgets)
	if err != nil {
		return nil, fmt.Errorf("marshal widgets: %w", err)
	}
	layout, err := json.Marshal(d.Layout)
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	theme, err := json.Marshal(d.Theme)
	if err != nil {
		return nil, fmt.Errorf("marshal theme: %w", err)
	}
	shared, err := json.Marshal(d.SharedWith)
	if err != nil {
		return nil, fmt.Errorf("marshal shared access: %w", err)
	}

	return &dashboardDatamodel.Dashboard{
		ID:               d.ID,
		Name:             d.Name,
		Description:      d.Description,
		UserID:           d.UserID,
		CompanyID:        d.CompanyID,
		Type:             string(d.Type),
		Widgets:          datatypes.JSON(widgets),
		Layout:           datatypes.JSON(layout),
		Theme:            datatypes.JSON(theme),
		SharedWith:       datatypes.JSON(shared),
		Tags:             datatypes.JSONSlice[string](d.Tags),
		IsDefault:        d.IsDefault,
		IsTemplate:       d.IsTemplate,
		TemplateCategory: d.TemplateCategory,
		ViewCount:        d.ViewCount,
		LastViewedAt:     d.LastViewedAt,
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func FromDataModel(m *dashboardDatamodel.Dashboard) (*Dashboard, error) {
	d := &Dashboard{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		UserID:           m.UserID,
		CompanyID:        m.CompanyID,
		Type:             Type(m.Type),
		Widgets:          []Widget{},
		Layout:           DefaultLayout(),
		Theme:            DefaultTheme(),
		SharedWith:       []SharedAccess{},
		Tags:             []string(m.Tags),
		IsDefault:        m.IsDefault,
		IsTemplate:       m.IsTemplate,
		TemplateCategory: m.TemplateCategory,
		ViewCount:        m.ViewCount,
		LastViewedAt:     m.LastViewedAt,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}

	docs := []struct {
		name string
		raw  datatypes.JSON
		dst  interface{}
	}{
		{"widgets", m.Widgets, &d.Widgets},
		{"layout", m.Layout, &d.Layout},
		{"theme", m.Theme, &d.Theme},
		{"shared_with", m.SharedWith, &d.SharedWith},
	}
	for _, doc := range docs {
		if len(doc.raw) == 0 || string(doc.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return nil, fmt.Errorf("decode dashboard %s %s: %w", m.ID, doc.name, err)
		}
	}
	if d.Widgets == nil {
		d.Widgets = []Widget{}
	}
	if d.SharedWith == nil {
		d.SharedWith = []SharedAccess{}
	}
	return d, nil
}
