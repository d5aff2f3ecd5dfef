package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/analytics"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/dashboard"
	"github.com/frahmantamala/bizanalytics/internal/transport/middleware"
	"github.com/frahmantamala/bizanalytics/internal/transport/swagger"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups everything the router mounts. A nil handler leaves its routes out.
type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Company   *company.Handler
	Dashboard *dashboard.Handler
	Activity  *activity.Handler
	Analytics *analytics.Handler
	Events    *EventStreamHandler
	Health    *HealthHandler

	Access   *middleware.AccessControl
	Presence middleware.PresenceTracker
	OpenAPI  *swagger.Document
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TraceHeader},
		ExposedHeaders:   []string{middleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestContext)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if h.OpenAPI != nil {
		router.Method(http.MethodGet, swagger.DocumentPath, h.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Auth.Register)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			if h.Presence != nil {
				pr.Use(middleware.Presence(h.Presence))
			}

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}
			if h.Access == nil {
				return
			}

			pr.Route("/companies", func(cr chi.Router) {
				registerCompanyRoutes(cr, h)
			})
			pr.Route("/dashboards", func(dr chi.Router) {
				registerDashboardRoutes(dr, h)
			})
		})
	})
}

func registerCompanyRoutes(r chi.Router, h Handlers) {
	if h.Company != nil {
		r.Post("/", h.Company.Create)
		r.Get("/", h.Company.List)
	}

	r.Route("/{companyId}", func(cr chi.Router) {
		can := h.Access.RequireCompanyPermission

		if h.Company != nil {
			cr.With(can(auth.CapCompanyRead)).Get("/", h.Company.Get)
			cr.With(can(auth.CapCompanyUpdate)).Put("/", h.Company.Update)
			cr.With(can(auth.CapCompanyRead)).Get("/members", h.Company.Members)
			cr.With(can(auth.CapCompanyMembersAdd)).Post("/members", h.Company.AddMember)
			cr.With(can(auth.CapCompanyMembersRemove)).Delete("/members/{memberId}", h.Company.RemoveMember)
			cr.With(can(auth.CapCompanyRead)).Get("/statistics", h.Company.Statistics)
		}
		if h.Activity != nil {
			cr.With(can(auth.CapCompanyRead)).Get("/activity", h.Activity.GetRecent)
		}
		if h.Events != nil {
			cr.With(can(auth.CapCompanyRead)).Get("/events", h.Events.Stream)
		}
		if h.Analytics != nil {
			cr.With(can(auth.CapAnalyticsRead)).Get("/analytics/snapshots", h.Analytics.Snapshots)
			cr.With(can(auth.CapAnalyticsRead), h.Access.RequireSubscription(company.PlanPro)).
				Get("/analytics/kpis", h.Analytics.KPIs)
		}
	})
}

func registerDashboardRoutes(r chi.Router, h Handlers) {
	if h.Dashboard == nil {
		return
	}

	r.Post("/", h.Dashboard.Create)
	r.Get("/", h.Dashboard.List)
	// registered ahead of /{dashboardId} so "templates" is never taken for an id
	r.Get("/templates", h.Dashboard.Templates)

	r.Route("/{dashboardId}", func(dr chi.Router) {
		access := h.Access.RequireDashboardAccess

		dr.With(access(dashboard.ActionView)).Get("/", h.Dashboard.Get)
		dr.With(access(dashboard.ActionEdit)).Put("/", h.Dashboard.Update)
		dr.With(access(dashboard.ActionDelete)).Delete("/", h.Dashboard.Delete)
		dr.With(access(dashboard.ActionShare)).Post("/share", h.Dashboard.Share)
		dr.With(access(dashboard.ActionView)).Post("/clone", h.Dashboard.Clone)

		dr.With(access(dashboard.ActionEdit)).Post("/widgets", h.Dashboard.AddWidget)
		dr.With(access(dashboard.ActionEdit)).Put("/widgets/{widgetId}", h.Dashboard.UpdateWidget)
		dr.With(access(dashboard.ActionEdit)).Delete("/widgets/{widgetId}", h.Dashboard.RemoveWidget)
	})
}
