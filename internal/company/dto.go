package company

import (
	"strings"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	"github.com/frahmantamala/bizanalytics/internal/core/common/validation"
)

type CreateCompanyDTO struct {
	Name     string                 `json:"name"`
	Email    string                 `json:"email"`
	Industry string                 `json:"industry"`
	Size     string                 `json:"size"`
	Website  string                 `json:"website"`
	Phone    string                 `json:"phone"`
	Address  map[string]interface{} `json:"address"`
}

func (d *CreateCompanyDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Website = strings.TrimSpace(d.Website)
	d.Phone = strings.TrimSpace(d.Phone)
}

func (d CreateCompanyDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("email", d.Email).Required().Email()
	v.Field("industry", d.Industry).Required().OneOf(internal.ErrCodeValidationFailed, Industries...)
	v.Field("size", d.Size).Required().OneOf(internal.ErrCodeValidationFailed, Sizes...)
	return v.Validate()
}

// UpdateCompanyDTO only carries the fields a member with company.update may change.
type UpdateCompanyDTO struct {
	Name     *string                `json:"name"`
	Industry *string                `json:"industry"`
	Size     *string                `json:"size"`
	Website  *string                `json:"website"`
	Phone    *string                `json:"phone"`
	Address  map[string]interface{} `json:"address"`
	Settings map[string]interface{} `json:"settings"`
}

func (d UpdateCompanyDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(100)
	}
	v.Field("industry", d.Industry).OneOf(internal.ErrCodeValidationFailed, Industries...)
	v.Field("size", d.Size).OneOf(internal.ErrCodeValidationFailed, Sizes...)
	return v.Validate()
}

// Apply copies the provided fields onto c and returns their names.
func (d UpdateCompanyDTO) Apply(c *Company) []string {
	var changed []string
	if d.Name != nil {
		c.Name = strings.TrimSpace(*d.Name)
		changed = append(changed, "name")
	}
	if d.Industry != nil {
		c.Industry = Industry(*d.Industry)
		changed = append(changed, "industry")
	}
	if d.Size != nil {
		c.Size = Size(*d.Size)
		changed = append(changed, "size")
	}
	if d.Website != nil {
		c.Website = strings.TrimSpace(*d.Website)
		changed = append(changed, "website")
	}
	if d.Phone != nil {
		c.Phone = strings.TrimSpace(*d.Phone)
		changed = append(changed, "phone")
	}
	if d.Address != nil {
		c.Address = d.Address
		changed = append(changed, "address")
	}
	if d.Settings != nil {
		if c.Settings == nil {
			c.Settings = DefaultSettings()
		}
		for k, val := range d.Settings {
			c.Settings[k] = val
		}
		changed = append(changed, "settings")
	}
	return changed
}

// AddMemberDTO identifies the new member by email or by user id.
type AddMemberDTO struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (d AddMemberDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("role", d.Role).Required().OneOf(internal.ErrCodeInvalidRole, auth.RoleNames()...)
	if d.UserID == "" {
		v.Field("email", strings.TrimSpace(d.Email)).Required().Email()
	}
	return v.Validate()
}

type MembersQuery struct {
	Page     int
	PageSize int
	Role     auth.Role
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (q *MembersQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
}

type MembersPage struct {
	Members    []Membership `json:"members"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
}

// CompanyWithRole is a company listed for a member, with the caller's role.
type CompanyWithRole struct {
	*Company
	UserRole auth.Role `json:"userRole"`
	Access   Access    `json:"access"`
}

// Access summarises what the caller's role allows so clients can hide controls.
type Access struct {
	Administer        bool `json:"administer"`
	ManageMembers     bool `json:"manageMembers"`
	EditDashboards    bool `json:"editDashboards"`
	OnlyOwnDashboards bool `json:"onlyOwnDashboards"`
}

func AccessFor(role auth.Role) Access {
	return Access{
		Administer:        auth.IsOwnerOrAdmin(role),
		ManageMembers:     auth.HasAllPermissions(role, auth.CapCompanyMembersAdd, auth.CapCompanyMembersRemove),
		EditDashboards:    auth.HasAnyPermission(role, auth.CapDashboardUpdate, auth.CapDashboardUpdateOwn),
		OnlyOwnDashboards: !auth.IsAllowed(role, auth.CapDashboardUpdate) && auth.IsAllowed(role, auth.CapDashboardUpdateOwn),
	}
}

type Statistics struct {
	CompanyID          string                 `json:"company_id"`
	MemberCount        int                    `json:"member_count"`
	DashboardCount     int64                  `json:"dashboard_count"`
	Plan               Plan                   `json:"plan"`
	SubscriptionActive bool                   `json:"subscription_active"`
	ExpiresAt          time.Time              `json:"expires_at"`
	Counters           map[string]interface{} `json:"counters"`
	RecentActivity     []activity.Entry       `json:"recent_activity"`
}
