package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/api/validate"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(a *services.AuditService) *AuditHandler { return &AuditHandler{Audit: a} }

type auditDeleted struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

// Delete handles DELETE /api/audit/{id}.
func (h *AuditHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.Audit.DeleteEntry(r.Context(), chi.URLParam(r, "id"), middleware.CallerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Log not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, auditDeleted{Success: true, Deleted: id})
}

// List handles GET /api/audit?action=&actor_id=&target_id=&since=&limit=&offset=.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseAuditFilter(r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	page, err := h.Audit.List(r.Context(), f, middleware.CallerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func parseAuditFilter(r *http.Request) (repo.AuditFilter, error) {
	q := r.URL.Query()
	var (
		f    repo.AuditFilter
		errs validate.Errs
	)
	if v := strings.TrimSpace(q.Get("action")); v != "" {
		f.Action = &v
	}
	for _, p := range []struct {
		name string
		dst  **int64
	}{{"actor_id", &f.ActorID}, {"target_id", &f.TargetID}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, validate.ErrField{Field: p.name, Msg: "must be an integer"})
				continue
			}
			*p.dst = &n
		}
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, validate.ErrField{Field: "since", Msg: "must be RFC3339"})
		} else {
			f.Since = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}
