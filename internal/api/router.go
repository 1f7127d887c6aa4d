package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/checkin-backend/internal/api/handlers"
	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/config"
	"github.com/baharkarakas/checkin-backend/internal/metrics"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/policy"
	"github.com/baharkarakas/checkin-backend/internal/services"
	"github.com/baharkarakas/checkin-backend/internal/telemetry"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Cfg       config.Config
	DB        Pinger
	Sessions  *services.SessionService
	Resolver  *services.Resolver
	Audit     *services.AuditService
	Badges    *services.BadgeService
	Approvals *services.ApprovalService
	Proxies   middleware.TrustedProxies
}

func NewRouter(d RouterDeps) http.Handler {
	emergency := services.EmergencyAdmin(d.Cfg.EmergencyAdminUsername)
	authMW := middleware.NewAuthMiddleware(d.Sessions)

	r := chi.NewRouter()
	r.Use(telemetry.HTTPMiddleware(d.Cfg.ServiceName))
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(middleware.RealIP(d.Proxies), middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !allowsAny(d.Cfg.AllowedOrigins),
	}))
	r.Use(authMW.Session)
	r.Use(middleware.Guard(policy.Evaluator{Production: d.Cfg.IsProduction(), Emergency: emergency}))

	// health & metrics
	r.Get("/health", healthHandler(d.DB))
	r.Handle("/metrics", metrics.Handler())

	nfc := handlers.NewNFCHandler(d.Resolver)
	audit := handlers.NewAuditHandler(d.Audit)
	sess := handlers.NewAuthHandler(d.Sessions, emergency, d.Cfg.IsProduction())
	accounts := handlers.NewAccountsHandler(d.Badges, d.Approvals)

	r.Route("/api", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/login", sess.Login)
		r.Post("/auth/logout", sess.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCaller)
			r.Get("/session", sess.WhoAmI)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireEmergency(emergency, false))
			r.Put("/session/debug-role", sess.SetDebugRole)
			r.Delete("/session/debug-role", sess.ClearDebugRole)
		})

		// ---------- check-in ----------
		// anonymous callers get 204 from the handler, not 401
		r.Get("/nfc/{token}", nfc.Resolve)
		r.Get("/nfc/", nfc.Resolve)

		// ---------- audit ----------
		r.Get("/audit", audit.List)
		r.Delete("/audit/{id}", audit.Delete)

		// ---------- accounts ----------
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireEmergency(emergency, true))
			r.Post("/accounts/{id}/badge", accounts.IssueBadge)
			r.Post("/accounts/{id}/approval", accounts.SetApproval)
		})

		// staff-only probe used by the scan screen before opening the camera
		r.With(middleware.RequireRoles(models.StaffRoles...)).Get("/scan/ready", func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
		})
	})

	if d.Cfg.WebRoot != "" {
		r.Handle("/*", http.FileServer(http.Dir(d.Cfg.WebRoot)))
	}
	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "health check: database unavailable", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "ok"})
	}
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
