package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bizanalytics/internal/company"
)

// Unlimited marks a plan without a dashboard quota.
const Unlimited = -1

var dashboardQuota = map[company.Plan]int{
	company.PlanFree:       5,
	company.PlanPro:        50,
	company.PlanEnterprise: Unlimited,
}

var planLevel = map[company.Plan]int{
	company.PlanFree:       1,
	company.PlanPro:        2,
	company.PlanEnterprise: 3,
}

// DashboardQuota returns the dashboard limit of plan; unknown plans get the free quota.
func DashboardQuota(plan company.Plan) int {
	if q, ok := dashboardQuota[plan]; ok {
		return q
	}
	return dashboardQuota[company.PlanFree]
}

type DashboardCounter interface {
	CountByCompany(ctx context.Context, companyID string) (int64, error)
}

// Limiter answers plan questions for a company.
//
// The quota check counts and then lets the caller create, so two concurrent
// creates may both pass at quota-1. The limit is best-effort.
type Limiter struct {
	counter DashboardCounter
	logger  *slog.Logger
	now     func() time.Time
}

func NewLimiter(counter DashboardCounter, logger *slog.Logger) *Limiter {
	return &Limiter{counter: counter, logger: logger, now: time.Now}
}

// CanCreateDashboard is false once the subscription has expired or the quota is used up.
func (l *Limiter) CanCreateDashboard(ctx context.Context, c *company.Company) (bool, error) {
	if !c.SubscriptionActive(l.now()) {
		l.logger.Debug("subscription expired", "company_id", c.ID, "expires_at", c.Subscription.ExpiresAt)
		return false, nil
	}

	quota := DashboardQuota(c.Subscription.Plan)
	if quota == Unlimited {
		return true, nil
	}

	count, err := l.counter.CountByCompany(ctx, c.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count dashboards: %w", err)
	}
	return count < int64(quota), nil
}

// HasPlan reports whether c has an active subscription at or above required.
func (l *Limiter) HasPlan(c *company.Company, required company.Plan) bool {
	if !c.SubscriptionActive(l.now()) {
		return false
	}
	return planLevel[c.Subscription.Plan] >= planLevel[required]
}
