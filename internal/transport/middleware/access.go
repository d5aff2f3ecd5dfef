package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/dashboard"
	"github.com/frahmantamala/bizanalytics/internal/transport"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/go-chi/chi"
)

type CompanyLoader interface {
	GetByID(ctx context.Context, id string) (*company.Company, error)
}

type DashboardLoader interface {
	GetByID(ctx context.Context, id string) (*dashboard.Dashboard, error)
}

type PlanChecker interface {
	HasPlan(c *company.Company, required company.Plan) bool
}

// AccessControl builds the gates that run before company and dashboard handlers.
// Each gate stops at the first failed check and writes the error envelope.
type AccessControl struct {
	*transport.BaseHandler
	companies  CompanyLoader
	dashboards DashboardLoader
	plans      PlanChecker
}

func NewAccessControl(base *transport.BaseHandler, companies CompanyLoader, dashboards DashboardLoader, plans PlanChecker) *AccessControl {
	return &AccessControl{
		BaseHandler: base,
		companies:   companies,
		dashboards:  dashboards,
		plans:       plans,
	}
}

// RequireCompanyPermission loads the company named by {companyId} and lets the
// request through when the caller's role there grants capability.
func (a *AccessControl) RequireCompanyPermission(capability auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := internal.UserIDFromContext(ctx)
			if userID == "" {
				a.HandleServiceError(w, r, internal.ErrMissingToken)
				return
			}

			c, err := a.companies.GetByID(ctx, chi.URLParam(r, "companyId"))
			if err != nil {
				a.HandleServiceError(w, r, err)
				return
			}

			role, ok := c.RoleOf(userID)
			if !ok {
				a.HandleServiceError(w, r, internal.ErrNotMember)
				return
			}
			if !auth.IsAllowed(role, capability) {
				logger.From(ctx).Warn("access denied: role lacks capability",
					"user_id", userID,
					"company_id", c.ID,
					"role", role,
					"capability", capability)
				a.HandleServiceError(w, r, internal.ErrInsufficientPermission)
				return
			}

			ctx = company.ContextWithCompany(ctx, c)
			ctx = auth.ContextWithRole(ctx, role)
			ctx = logger.WithCompany(ctx, c.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireDashboardAccess loads the dashboard named by {dashboardId} and asks it
// whether the caller may perform action. Callers outside the dashboard's company
// get NotFound so the dashboard's existence is not revealed.
func (a *AccessControl) RequireDashboardAccess(action dashboard.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := internal.UserIDFromContext(ctx)
			if userID == "" {
				a.HandleServiceError(w, r, internal.ErrMissingToken)
				return
			}

			d, err := a.dashboards.GetByID(ctx, chi.URLParam(r, "dashboardId"))
			if err != nil {
				a.HandleServiceError(w, r, err)
				return
			}

			member, err := a.isCompanyMember(ctx, d.CompanyID, userID)
			if err != nil {
				a.HandleServiceError(w, r, err)
				return
			}

			if !d.CanDo(userID, action, member) {
				if !member && !d.CanDo(userID, dashboard.ActionView, member) {
					a.HandleServiceError(w, r, internal.ErrDashboardNotFound)
					return
				}
				logger.From(ctx).Warn("access denied: dashboard action",
					"user_id", userID,
					"dashboard_id", d.ID,
					"action", action)
				a.HandleServiceError(w, r, internal.ErrInsufficientPermission)
				return
			}

			ctx = dashboard.ContextWith(ctx, d)
			ctx = logger.WithDashboard(ctx, d.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isCompanyMember treats a vanished company as no membership.
func (a *AccessControl) isCompanyMember(ctx context.Context, companyID, userID string) (bool, error) {
	c, err := a.companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, internal.ErrCompanyNotFound) {
			return false, nil
		}
		return false, err
	}
	return c.IsMember(userID), nil
}

// RequireSubscription must run after RequireCompanyPermission.
func (a *AccessControl) RequireSubscription(plan company.Plan) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := company.FromContext(r.Context())
			if !ok {
				a.Logger.Error("subscription gate reached without a company in context", "path", r.URL.Path)
				a.HandleServiceError(w, r, internal.ErrCompanyNotFound)
				return
			}
			if !a.plans.HasPlan(c, plan) {
				a.HandleServiceError(w, r, internal.ErrSubscriptionRequired.WithDetails(map[string]interface{}{
					"requiredPlan": plan,
					"currentPlan":  c.Subscription.Plan,
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
