package analytics

import (
	"net/http"

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

type SnapshotsResponse struct {
	Snapshots []Snapshot `json:"snapshots"`
	Count     int        `json:"count"`
}

// Snapshots handles GET /companies/{companyId}/analytics/snapshots?metric=&days=&limit=
func (h *Handler) Snapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Service.Snapshots(r.Context(),
		chi.URLParam(r, "companyId"),
		q.Get("metric"),
		h.QueryInt(r, "days", DefaultDays),
		h.QueryInt(r, "limit", DefaultLimit),
	)
	if err != nil {
		h.Logger.Debug("Snapshots: query rejected", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SnapshotsResponse{Snapshots: list, Count: len(list)})
}

// KPIs handles GET /companies/{companyId}/analytics/kpis?days=
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.KPIs(r.Context(), chi.URLParam(r, "companyId"), h.QueryInt(r, "days", DefaultDays))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
