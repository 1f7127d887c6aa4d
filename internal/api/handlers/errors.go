package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/api/validate"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

const msgInternal = "Internal server error"

// writeServiceError maps service errors onto status codes. notFound is the
// message used for 404s, which differs per endpoint.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		ve *services.ValidationError
		fe validate.Errs
		rl *services.RateLimitedError
	)
	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, http.StatusBadRequest, "", ve.Msg, nil)
	case errors.As(err, &fe):
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "Invalid request", fe)
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many login attempts", nil)
	case errors.Is(err, services.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, "", "Unauthorized", nil)
	case errors.Is(err, services.ErrNotApproved):
		httpx.WriteError(w, http.StatusForbidden, "not_approved", "Account not approved", nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "", "Forbidden", nil)
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "", notFound, nil)
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", "Already exists", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"err", err,
		)
		httpx.WriteError(w, http.StatusInternalServerError, "", msgInternal, nil)
	}
}

func pathInt64(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validate.Errs{{Field: "id", Msg: "must be a positive integer"}}
	}
	return id, nil
}
