package dashboard

import (
	"strings"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/core/common/validation"
	"github.com/google/uuid"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

type CreateDashboardDTO struct {
	CompanyID        string   `json:"companyId"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Type             string   `json:"type"`
	TemplateCategory string   `json:"category"`
	Widgets          []Widget `json:"widgets"`
	Layout           *Layout  `json:"layout"`
	Theme            *Theme   `json:"theme"`
	Tags             []string `json:"tags"`
	IsDefault        bool     `json:"isDefault"`
}

func (d *CreateDashboardDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	if d.Name == "" {
		d.Name = DefaultName
	}
}

func (d CreateDashboardDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("companyId", d.CompanyID).Required()
	v.Field("name", d.Name).Required().MaxLength(maxNameLength)
	v.Field("description", d.Description).MaxLength(maxDescriptionLength)
	v.Field("type", d.Type).OneOf(internal.ErrCodeValidationFailed, Types...)
	v.Field("category", d.TemplateCategory).OneOf(internal.ErrCodeValidationFailed, TemplateCategories...)
	if d.Theme != nil {
		v.Field("theme.mode", d.Theme.Mode).OneOf(internal.ErrCodeValidationFailed, "light", "dark")
		v.Field("theme.primaryColor", d.Theme.PrimaryColor).HexColor()
	}
	return v.Validate()
}

// UpdateDashboardDTO lists every field a dashboard editor may change.
type UpdateDashboardDTO struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Widgets     *[]Widget `json:"widgets"`
	Layout      *Layout   `json:"layout"`
	Theme       *Theme    `json:"theme"`
	IsDefault   *bool     `json:"isDefault"`
}

func (d UpdateDashboardDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", strings.TrimSpace(*d.Name)).Required().MaxLength(maxNameLength)
	}
	v.Field("description", d.Description).MaxLength(maxDescriptionLength)
	if d.Theme != nil {
		v.Field("theme.mode", d.Theme.Mode).OneOf(internal.ErrCodeValidationFailed, "light", "dark")
		v.Field("theme.primaryColor", d.Theme.PrimaryColor).HexColor()
	}
	if d.Layout != nil {
		v.Field("layout.cols", d.Layout.Cols).MinInt(1, internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}

// Update applies the allow-listed fields and returns their names.
// A replaced widget list goes through the same validation and id rules as AddWidget.
func (d *Dashboard) Update(dto UpdateDashboardDTO) ([]string, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var widgets []Widget
	if dto.Widgets != nil {
		staged := &Dashboard{Widgets: []Widget{}}
		for _, w := range *dto.Widgets {
			if _, err := staged.AddWidget(w); err != nil {
				return nil, err
			}
		}
		widgets = staged.Widgets
	}

	var changed []string
	if dto.Name != nil {
		d.Name = strings.TrimSpace(*dto.Name)
		changed = append(changed, "name")
	}
	if dto.Description != nil {
		d.Description = strings.TrimSpace(*dto.Description)
		changed = append(changed, "description")
	}
	if dto.Widgets != nil {
		d.Widgets = widgets
		changed = append(changed, "widgets")
	}
	if dto.Layout != nil {
		d.Layout = *dto.Layout
		changed = append(changed, "layout")
	}
	if dto.Theme != nil {
		d.Theme = *dto.Theme
		changed = append(changed, "theme")
	}
	if dto.IsDefault != nil {
		d.IsDefault = *dto.IsDefault
		changed = append(changed, "isDefault")
	}
	return changed, nil
}

type ShareDTO struct {
	UserIDs    []string `json:"userIds"`
	Permission string   `json:"permission"`
}

func (d ShareDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("userIds", d.UserIDs).Required()
	v.Field("permission", d.Permission).OneOf(internal.ErrCodeValidationFailed, string(ShareView), string(ShareEdit))
	return v.Validate()
}

type CloneDTO struct {
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
}

func (d CloneDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", strings.TrimSpace(d.Name)).MaxLength(maxNameLength)
	if d.CompanyID != "" {
		v.Field("companyId", d.CompanyID).Custom(func(value interface{}) *internal.AppError {
			if _, err := uuid.Parse(d.CompanyID); err != nil {
				return internal.NewValidationFieldError("companyId", "companyId must be a valid id", internal.ErrCodeValidationFailed)
			}
			return nil
		})
	}
	return v.Validate()
}

type ShareResponse struct {
	Dashboard *Dashboard `json:"dashboard"`
	Added     []string   `json:"added"`
}

type WidgetResponse struct {
	Widget  *Widget `json:"widget,omitempty"`
	Changed bool    `json:"changed"`
}
