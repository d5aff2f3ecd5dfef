package auth

import (
	"fmt"
	"sort"
)

// Role is a company-scoped role carried on a membership.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleViewer   Role = "viewer"
)

// Roles lists every role in descending order of privilege.
var Roles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleEmployee, RoleViewer}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func RoleNames() []string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return names
}

// Capability is a dotted namespace.resource.action token.
type Capability string

const (
	CapabilityAll Capability = "*"

	CapCompanyRead          Capability = "company.read"
	CapCompanyUpdate        Capability = "company.update"
	CapCompanyMembersAdd    Capability = "company.members.add"
	CapCompanyMembersRemove Capability = "company.members.remove"

	CapDashboardCreate    Capability = "dashboard.create"
	CapDashboardRead      Capability = "dashboard.read"
	CapDashboardUpdate    Capability = "dashboard.update"
	CapDashboardUpdateOwn Capability = "dashboard.update.own"
	CapDashboardDelete    Capability = "dashboard.delete"

	CapAnalyticsRead   Capability = "analytics.read"
	CapAnalyticsCreate Capability = "analytics.create"

	CapReportCreate Capability = "report.create"
	CapReportRead   Capability = "report.read"
	CapReportUpdate Capability = "report.update"
	CapReportDelete Capability = "report.delete"

	CapSettingsUpdate Capability = "settings.update"
)

var capabilities = []Capability{
	CapabilityAll,
	CapCompanyRead, CapCompanyUpdate, CapCompanyMembersAdd, CapCompanyMembersRemove,
	CapDashboardCreate, CapDashboardRead, CapDashboardUpdate, CapDashboardUpdateOwn, CapDashboardDelete,
	CapAnalyticsRead, CapAnalyticsCreate,
	CapReportCreate, CapReportRead, CapReportUpdate, CapReportDelete,
	CapSettingsUpdate,
}

func (c Capability) Valid() bool {
	for _, known := range capabilities {
		if c == known {
			return true
		}
	}
	return false
}

// rolePermissions is the only place roles are mapped to capabilities.
// dashboard.update.own is a separate grant and never implies dashboard.update.
var rolePermissions = map[Role][]Capability{
	RoleOwner: {CapabilityAll},
	RoleAdmin: {
		CapCompanyRead, CapCompanyUpdate, CapCompanyMembersAdd, CapCompanyMembersRemove,
		CapDashboardCreate, CapDashboardRead, CapDashboardUpdate, CapDashboardDelete,
		CapAnalyticsRead, CapAnalyticsCreate,
		CapReportCreate, CapReportRead, CapReportUpdate, CapReportDelete,
		CapSettingsUpdate,
	},
	RoleManager: {
		CapCompanyRead,
		CapDashboardCreate, CapDashboardRead, CapDashboardUpdate,
		CapAnalyticsRead,
		CapReportCreate, CapReportRead, CapReportUpdate,
	},
	RoleEmployee: {
		CapCompanyRead,
		CapDashboardCreate, CapDashboardRead, CapDashboardUpdateOwn,
		CapAnalyticsRead,
		CapReportRead,
	},
	RoleViewer: {
		CapCompanyRead,
		CapDashboardRead,
		CapAnalyticsRead,
		CapReportRead,
	},
}

// CapabilitySet is the resolved grant of a role.
type CapabilitySet map[Capability]struct{}

func (s CapabilitySet) Has(c Capability) bool {
	if _, ok := s[CapabilityAll]; ok {
		return true
	}
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// ResolveCapabilities returns a fresh set for role; unknown roles resolve to an empty set.
func ResolveCapabilities(role Role) CapabilitySet {
	grants := rolePermissions[role]
	set := make(CapabilitySet, len(grants))
	for _, c := range grants {
		set[c] = struct{}{}
	}
	return set
}

func IsAllowed(role Role, required Capability) bool {
	for _, c := range rolePermissions[role] {
		if c == CapabilityAll || c == required {
			return true
		}
	}
	return false
}

func HasAnyPermission(role Role, required ...Capability) bool {
	for _, c := range required {
		if IsAllowed(role, c) {
			return true
		}
	}
	return false
}

func HasAllPermissions(role Role, required ...Capability) bool {
	for _, c := range required {
		if !IsAllowed(role, c) {
			return false
		}
	}
	return true
}

func IsOwnerOrAdmin(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// ValidateRoleTable checks that every role has an entry and only grants known capabilities.
// The server refuses to start if this fails.
func ValidateRoleTable() error {
	for _, r := range Roles {
		grants, ok := rolePermissions[r]
		if !ok {
			return fmt.Errorf("role %q has no capability entry", r)
		}
		for _, c := range grants {
			if !c.Valid() {
				return fmt.Errorf("role %q grants unknown capability %q", r, c)
			}
		}
	}
	for r := range rolePermissions {
		if !r.Valid() {
			return fmt.Errorf("capability table references unknown role %q", r)
		}
	}
	return nil
}
