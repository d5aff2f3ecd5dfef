package events

const (
	EventTypeMemberAdded      = "member.added"
	EventTypeMemberRemoved    = "member.removed"
	EventTypeCompanyUpdated   = "company.updated"
	EventTypeDashboardUpdated = "dashboard.updated"
	EventTypePresenceOnline   = "presence.online"
	EventTypePresenceOffline  = "presence.offline"
)

type MemberEvent struct {
	BaseEvent
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
}

func NewMemberAddedEvent(companyID, userID, role string) *MemberEvent {
	return &MemberEvent{
		BaseEvent: NewBaseEvent(EventTypeMemberAdded, map[string]interface{}{
			"company_id": companyID,
			"user_id":    userID,
			"role":       role,
		}),
		CompanyID: companyID,
		UserID:    userID,
		Role:      role,
	}
}

func NewMemberRemovedEvent(companyID, userID string) *MemberEvent {
	return &MemberEvent{
		BaseEvent: NewBaseEvent(EventTypeMemberRemoved, map[string]interface{}{
			"company_id": companyID,
			"user_id":    userID,
		}),
		CompanyID: companyID,
		UserID:    userID,
	}
}

func NewCompanyUpdatedEvent(companyID, userID string, fields []string) Event {
	return NewBaseEvent(EventTypeCompanyUpdated, map[string]interface{}{
		"company_id": companyID,
		"updated_by": userID,
		"fields":     fields,
	})
}

type DashboardEvent struct {
	BaseEvent
	DashboardID string `json:"dashboard_id"`
	UserID      string `json:"user_id"`
	Change      string `json:"change"`
}

func NewDashboardUpdatedEvent(dashboardID, userID, change string) *DashboardEvent {
	return &DashboardEvent{
		BaseEvent: NewBaseEvent(EventTypeDashboardUpdated, map[string]interface{}{
			"dashboard_id": dashboardID,
			"user_id":      userID,
			"change":       change,
		}),
		DashboardID: dashboardID,
		UserID:      userID,
		Change:      change,
	}
}

type PresenceEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Active bool   `json:"active"`
}

func NewPresenceEvent(userID string, active bool) *PresenceEvent {
	eventType := EventTypePresenceOffline
	if active {
		eventType = EventTypePresenceOnline
	}
	return &PresenceEvent{
		BaseEvent: NewBaseEvent(eventType, map[string]interface{}{
			"user_id": userID,
			"active":  active,
		}),
		UserID: userID,
		Active: active,
	}
}
