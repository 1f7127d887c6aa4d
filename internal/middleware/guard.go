package middleware

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/checkin-backend/internal/policy"
)

// Guard runs the page access policy before anything else is served. It must
// sit after Session so the caller is known.
func Guard(e policy.Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := e.Evaluate(r, CallerFrom(r.Context()))
			if d.Action == policy.Allow {
				next.ServeHTTP(w, r)
				return
			}
			slog.DebugContext(r.Context(), "guard redirect", "path", r.URL.Path, "to", d.Location, "status", d.Status())
			http.Redirect(w, r, d.Location, d.Status())
		})
	}
}
