package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

type AccountsHandler struct {
	Badges    *services.BadgeService
	Approvals *services.ApprovalService
}

func NewAccountsHandler(b *services.BadgeService, a *services.ApprovalService) *AccountsHandler {
	return &AccountsHandler{Badges: b, Approvals: a}
}

// IssueBadge handles POST /api/accounts/{id}/badge.
func (h *AccountsHandler) IssueBadge(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	b, err := h.Badges.Issue(r.Context(), id, middleware.CallerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Account not found")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

type approvalReq struct {
	Status string `json:"status"`
}

// SetApproval handles POST /api/accounts/{id}/approval.
func (h *AccountsHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	var req approvalReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "Invalid request body", nil)
		return
	}
	a, err := h.Approvals.Decide(r.Context(), id, models.ApprovalStatus(req.Status), middleware.CallerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Account not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}
