package dashboard

import (
	"net/http"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

func (h *Handler) dashboardFromRequest(w http.ResponseWriter, r *http.Request) (*Dashboard, bool) {
	d, ok := FromContext(r.Context())
	if !ok {
		h.Logger.Error("dashboard handler reached without access middleware", "path", r.URL.Path)
		h.HandleServiceError(w, r, internal.ErrDashboardNotFound)
		return nil, false
	}
	return d, true
}

// Create handles POST /dashboards
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateDashboardDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	d, err := h.Service.Create(r.Context(), internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.Logger.Debug("Create: dashboard rejected", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, d)
}

// List handles GET /dashboards?companyId=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), internal.UserIDFromContext(r.Context()), r.URL.Query().Get("companyId"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"dashboards": list, "count": len(list)})
}

// Templates handles GET /dashboards/templates?category=
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Templates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"templates": list, "count": len(list)})
}

// Get handles GET /dashboards/{dashboardId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, h.Service.View(r.Context(), d))
}

// Update handles PUT /dashboards/{dashboardId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}

	var dto UpdateDashboardDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), d, internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /dashboards/{dashboardId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), d, internal.UserIDFromContext(r.Context())); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Share handles POST /dashboards/{dashboardId}/share
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}

	var dto ShareDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Share(r.Context(), d, internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Clone handles POST /dashboards/{dashboardId}/clone. An empty body clones into the source company.
func (h *Handler) Clone(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}

	var dto CloneDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(w, r, &dto); err != nil {
			h.HandleServiceError(w, r, err)
			return
		}
	}

	clone, err := h.Service.Clone(r.Context(), d, internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, clone)
}

// AddWidget handles POST /dashboards/{dashboardId}/widgets
func (h *Handler) AddWidget(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}

	var widget Widget
	if err := h.DecodeJSON(w, r, &widget); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	added, err := h.Service.AddWidget(r.Context(), d, internal.UserIDFromContext(r.Context()), widget)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, added)
}

// UpdateWidget handles PUT /dashboards/{dashboardId}/widgets/{widgetId}
func (h *Handler) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}

	var patch WidgetPatch
	if err := h.DecodeJSON(w, r, &patch); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.UpdateWidget(r.Context(), d, internal.UserIDFromContext(r.Context()), chi.URLParam(r, "widgetId"), patch)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// RemoveWidget handles DELETE /dashboards/{dashboardId}/widgets/{widgetId}
func (h *Handler) RemoveWidget(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFromRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.RemoveWidget(r.Context(), d, internal.UserIDFromContext(r.Context()), chi.URLParam(r, "widgetId"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
