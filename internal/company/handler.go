package company

import (
	"net/http"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/auth"
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

// companyFromRequest returns the company resolved by the access middleware.
func (h *Handler) companyFromRequest(w http.ResponseWriter, r *http.Request) (*Company, bool) {
	c, ok := FromContext(r.Context())
	if !ok {
		h.Logger.Error("company handler reached without access middleware", "path", r.URL.Path)
		h.HandleServiceError(w, r, internal.ErrCompanyNotFound)
		return nil, false
	}
	return c, true
}

// Create handles POST /companies
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateCompanyDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	c, err := h.Service.Create(r.Context(), internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

// List handles GET /companies
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.ListForUser(r.Context(), internal.UserIDFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"companies": companies})
}

// Get handles GET /companies/{companyId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companyFromRequest(w, r)
	if !ok {
		return
	}
	role, _ := auth.RoleFromContext(r.Context())
	h.WriteJSON(w, http.StatusOK, CompanyWithRole{Company: c, UserRole: role})
}

// Update handles PUT /companies/{companyId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companyFromRequest(w, r)
	if !ok {
		return
	}

	var dto UpdateCompanyDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), c, internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// Members handles GET /companies/{companyId}/members
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companyFromRequest(w, r)
	if !ok {
		return
	}

	q := MembersQuery{
		Page:     h.QueryInt(r, "page", 1),
		PageSize: h.QueryInt(r, "pageSize", defaultPageSize),
		Role:     auth.Role(r.URL.Query().Get("role")),
	}
	if q.Role != "" && !q.Role.Valid() {
		h.HandleServiceError(w, r, internal.NewValidationFieldError("role", "Invalid role", internal.ErrCodeInvalidRole))
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.GetMembers(r.Context(), c, q))
}

// AddMember handles POST /companies/{companyId}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companyFromRequest(w, r)
	if !ok {
		return
	}

	var dto AddMemberDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	m, err := h.Service.AddMember(r.Context(), c, internal.UserIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

// RemoveMember handles DELETE /companies/{companyId}/members/{memberId}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companyFromRequest(w, r)
	if !ok {
		return
	}

	memberID := chi.URLParam(r, "memberId")
	if err := h.Service.RemoveMember(r.Context(), c, internal.UserIDFromContext(r.Context()), memberID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statistics handles GET /companies/{companyId}/statistics
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companyFromRequest(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.Statistics(r.Context(), c)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}
