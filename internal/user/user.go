package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/user"
)

// GlobalRole is informational only; company access is decided by membership.
type GlobalRole string

const (
	GlobalRoleUser  GlobalRole = "user"
	GlobalRoleAdmin GlobalRole = "admin"
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         GlobalRole `json:"role"`
	CompanyID    *string    `json:"company_id,omitempty"`
	Active       bool       `json:"active"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Inactive reports whether the user has been silent longer than threshold.
func (u *User) Inactive(now time.Time, threshold time.Duration) bool {
	if u.LastActiveAt == nil {
		return true
	}
	return now.Sub(*u.LastActiveAt) > threshold
}

func ToDataModel(u *User) *userDatamodel.User {
	role := string(u.Role)
	if role == "" {
		role = string(GlobalRoleUser)
	}
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         role,
		CompanyID:    u.CompanyID,
		Active:       u.Active,
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         GlobalRole(u.Role),
		CompanyID:    u.CompanyID,
		Active:       u.Active,
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
