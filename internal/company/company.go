package company

import (
	"context"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	companyDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/company"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"gorm.io/datatypes"
)

type Industry string

const (
	IndustryTechnology    Industry = "Technology"
	IndustryHealthcare    Industry = "Healthcare"
	IndustryFinance       Industry = "Finance"
	IndustryRetail        Industry = "Retail"
	IndustryManufacturing Industry = "Manufacturing"
	IndustryEducation     Industry = "Education"
	IndustryRealEstate    Industry = "Real Estate"
	IndustryOther         Industry = "Other"
)

var Industries = []string{
	string(IndustryTechnology), string(IndustryHealthcare), string(IndustryFinance),
	string(IndustryRetail), string(IndustryManufacturing), string(IndustryEducation),
	string(IndustryRealEstate), string(IndustryOther),
}

type Size string

var Sizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

var Plans = []string{string(PlanFree), string(PlanPro), string(PlanEnterprise)}

// DefaultSubscriptionPeriod is the validity of a subscription when the company is created.
const DefaultSubscriptionPeriod = 30 * 24 * time.Hour

type Subscription struct {
	Plan      Plan      `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
	Features  []string  `json:"features"`
}

// Active reports whether the subscription is still valid at now.
func (s Subscription) Active(now time.Time) bool {
	return !now.After(s.ExpiresAt)
}

type Membership struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	// Permissions is stored for display; authorization always goes through the role table.
	Permissions []string  `json:"permissions"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Company struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	Industry     Industry               `json:"industry"`
	Size         Size                   `json:"size"`
	Website      string                 `json:"website,omitempty"`
	Phone        string                 `json:"phone,omitempty"`
	Address      map[string]interface{} `json:"address,omitempty"`
	OwnerID      string                 `json:"owner_id"`
	Members      []Membership           `json:"members"`
	Subscription Subscription           `json:"subscription"`
	Settings     map[string]interface{} `json:"settings"`
	Statistics   map[string]interface{} `json:"statistics"`
	IsActive     bool                   `json:"is_active"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func DefaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"currency":        "USD",
		"language":        "en",
		"timezone":        "UTC",
		"dateFormat":      "DD/MM/YYYY",
		"fiscalYearStart": 1,
		"notifications": map[string]interface{}{
			"email": true,
			"push":  true,
			"sms":   false,
		},
		"aiFeatures": map[string]interface{}{
			"insights":        true,
			"predictions":     true,
			"recommendations": true,
		},
	}
}

func DefaultStatistics(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"totalRevenue":   0,
		"totalCustomers": 0,
		"totalOrders":    0,
		"growthRate":     0,
		"lastUpdated":    now,
	}
}

// New builds a free-plan company whose owner is its first member.
func New(id string, owner *user.User, name, email string, now time.Time) *Company {
	c := &Company{
		ID:      id,
		Name:    name,
		Email:   email,
		OwnerID: owner.ID,
		Subscription: Subscription{
			Plan:      PlanFree,
			ExpiresAt: now.Add(DefaultSubscriptionPeriod),
			Features:  []string{},
		},
		Settings:   DefaultSettings(),
		Statistics: DefaultStatistics(now),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.Members = []Membership{newMembership(owner, auth.RoleOwner, now)}
	return c
}

func newMembership(u *user.User, role auth.Role, now time.Time) Membership {
	perms := []string{}
	if role == auth.RoleOwner {
		perms = []string{string(auth.CapabilityAll)}
	}
	return Membership{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        role,
		Permissions: perms,
		JoinedAt:    now,
	}
}

func (c *Company) Member(userID string) (Membership, bool) {
	for _, m := range c.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

func (c *Company) IsMember(userID string) bool {
	_, ok := c.Member(userID)
	return ok
}

// RoleOf returns the caller's role, or false for non-members.
func (c *Company) RoleOf(userID string) (auth.Role, bool) {
	m, ok := c.Member(userID)
	return m.Role, ok
}

// AddMember appends u with role. The owner role is reserved for OwnerID.
func (c *Company) AddMember(u *user.User, role auth.Role, now time.Time) (Membership, error) {
	if !role.Valid() {
		return Membership{}, internal.NewValidationFieldError("role", "Invalid role", internal.ErrCodeInvalidRole)
	}
	if c.IsMember(u.ID) {
		return Membership{}, internal.ErrAlreadyMember
	}
	if role == auth.RoleOwner && u.ID != c.OwnerID {
		return Membership{}, internal.ErrOwnerRoleReserved
	}

	m := newMembership(u, role, now)
	c.Members = append(c.Members, m)
	return m, nil
}

func (c *Company) RemoveMember(userID string) error {
	if userID == c.OwnerID {
		return internal.ErrOwnerRemoval
	}
	for i, m := range c.Members {
		if m.UserID == userID {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return nil
		}
	}
	return internal.ErrMemberNotFound
}

func (c *Company) SubscriptionActive(now time.Time) bool {
	return c.Subscription.Active(now)
}

type ctxKey struct{}

func ContextWithCompany(ctx context.Context, c *Company) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Company, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Company)
	return c, ok && c != nil
}

func ToDataModel(c *Company) *companyDatamodel.Company {
	members := make([]companyDatamodel.Member, len(c.Members))
	for i, m := range c.Members {
		members[i] = MemberToDataModel(c.ID, m, i)
	}
	return &companyDatamodel.Company{
		ID:                    c.ID,
		Name:                  c.Name,
		Email:                 c.Email,
		Industry:              string(c.Industry),
		Size:                  string(c.Size),
		Website:               c.Website,
		Phone:                 c.Phone,
		Address:               datatypes.JSONMap(c.Address),
		OwnerID:               c.OwnerID,
		Plan:                  string(c.Subscription.Plan),
		SubscriptionExpiresAt: c.Subscription.ExpiresAt,
		Features:              datatypes.JSONSlice[string](c.Subscription.Features),
		Settings:              datatypes.JSONMap(c.Settings),
		Statistics:            datatypes.JSONMap(c.Statistics),
		IsActive:              c.IsActive,
		Members:               members,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

func MemberToDataModel(companyID string, m Membership, position int) companyDatamodel.Member {
	return companyDatamodel.Member{
		CompanyID:   companyID,
		UserID:      m.UserID,
		Username:    m.Username,
		Email:       m.Email,
		Role:        string(m.Role),
		Permissions: datatypes.JSONSlice[string](m.Permissions),
		Position:    position,
		JoinedAt:    m.JoinedAt,
	}
}

// FromDataModel expects Members ordered by position.
func FromDataModel(c *companyDatamodel.Company) *Company {
	members := make([]Membership, len(c.Members))
	for i, m := range c.Members {
		perms := []string(m.Permissions)
		if perms == nil {
			perms = []string{}
		}
		members[i] = Membership{
			UserID:      m.UserID,
			Username:    m.Username,
			Email:       m.Email,
			Role:        auth.Role(m.Role),
			Permissions: perms,
			JoinedAt:    m.JoinedAt,
		}
	}
	features := []string(c.Features)
	if features == nil {
		features = []string{}
	}
	return &Company{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Industry: Industry(c.Industry),
		Size:     Size(c.Size),
		Website:  c.Website,
		Phone:    c.Phone,
		Address:  map[string]interface{}(c.Address),
		OwnerID:  c.OwnerID,
		Members:  members,
		Subscription: Subscription{
			Plan:      Plan(c.Plan),
			ExpiresAt: c.SubscriptionExpiresAt,
			Features:  features,
		},
		Settings:   map[string]interface{}(c.Settings),
		Statistics: map[string]interface{}(c.Statistics),
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
