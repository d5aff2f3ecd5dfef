package activity

import (
	"context"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	activityDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/activity"
	"github.com/google/uuid"
)

type Action string

const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionRegister       Action = "register"
	ActionCompanyCreated Action = "company_created"
	ActionCompanyUpdated Action = "company_updated"
	ActionMemberAdded    Action = "member_added"
	ActionMemberRemoved  Action = "member_removed"

	ActionDashboardCreated Action = "dashboard_created"
	ActionDashboardUpdated Action = "dashboard_updated"
	ActionDashboardDeleted Action = "dashboard_deleted"
	ActionDashboardShared  Action = "dashboard_shared"
	ActionDashboardCloned  Action = "dashboard_cloned"
	ActionWidgetAdded      Action = "widget_added"
	ActionWidgetUpdated    Action = "widget_updated"
	ActionWidgetRemoved    Action = "widget_removed"
)

type Category string

const (
	CategoryAuth      Category = "auth"
	CategoryDashboard Category = "dashboard"
	CategoryCompany   Category = "company"
	CategoryUser      Category = "user"
	CategoryAnalytics Category = "analytics"
	CategoryReport    Category = "report"
	CategorySettings  Category = "settings"
	CategorySystem    Category = "system"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusWarning Status = "warning"
)

type Entry struct {
	ID        string                 `json:"id"`
	CompanyID string                 `json:"company_id"`
	UserID    string                 `json:"user_id"`
	Action    Action                 `json:"action"`
	Category  Category               `json:"category"`
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Status    Status                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewEntry stamps an entry with the client metadata carried on ctx.
func NewEntry(ctx context.Context, companyID, userID string, action Action, category Category, details map[string]interface{}) Entry {
	meta := internal.RequestMetaFromContext(ctx)
	return Entry{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Status:    StatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder is the fire-and-forget audit sink. Record never reports failure to the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

func ToDataModel(e Entry) *activityDatamodel.ActivityLog {
	status := string(e.Status)
	if status == "" {
		status = string(StatusSuccess)
	}
	return &activityDatamodel.ActivityLog{
		ID:        e.ID,
		CompanyID: e.CompanyID,
		UserID:    e.UserID,
		Action:    string(e.Action),
		Category:  string(e.Category),
		Details:   e.Details,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		Status:    status,
		CreatedAt: e.CreatedAt,
	}
}

func FromDataModel(a *activityDatamodel.ActivityLog) Entry {
	return Entry{
		ID:        a.ID,
		CompanyID: a.CompanyID,
		UserID:    a.UserID,
		Action:    Action(a.Action),
		Category:  Category(a.Category),
		Details:   a.Details,
		IPAddress: a.IPAddress,
		UserAgent: a.UserAgent,
		Status:    Status(a.Status),
		CreatedAt: a.CreatedAt,
	}
}
