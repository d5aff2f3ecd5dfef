package activity

import (
	"context"
	"net/http"

	"github.com/frahmantamala/bizanalytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetRecent(ctx context.Context, companyID string, limit int) ([]Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

type RecentResponse struct {
	Activities []Entry `json:"activities"`
}

// GetRecent handles GET /companies/{companyId}/activity
func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	limit := h.QueryInt(r, "limit", DefaultRecentLimit)

	entries, err := h.Service.GetRecent(r.Context(), companyID, limit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RecentResponse{Activities: entries})
}
