package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/checkin-backend/internal/api"
	"github.com/baharkarakas/checkin-backend/internal/auth"
	"github.com/baharkarakas/checkin-backend/internal/config"
	"github.com/baharkarakas/checkin-backend/internal/db"
	"github.com/baharkarakas/checkin-backend/internal/logger"
	"github.com/baharkarakas/checkin-backend/internal/metrics"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	"github.com/baharkarakas/checkin-backend/internal/ratelimit"
	"github.com/baharkarakas/checkin-backend/internal/repository/postgres"
	"github.com/baharkarakas/checkin-backend/internal/services"
	"github.com/baharkarakas/checkin-backend/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("telemetry", "err", err)
		os.Exit(1)
	}

	// pool is built on first query
	gw := db.NewGateway(db.Options{
		URL:        cfg.DatabaseURL,
		CACertPath: cfg.DBCACertPath,
		MaxConns:   cfg.DBMaxConns,
	})

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, gw); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	if cfg.EmergencyAdminUsername == "" {
		log.Warn("EMERGENCY_ADMIN_USERNAME not set, emergency admin disabled")
	}
	if cfg.IsProduction() && cfg.JWTSecret == "changeme-secret" {
		log.Error("JWT_SECRET must be set in production")
		os.Exit(1)
	}

	var limiter ratelimit.Limiter = ratelimit.NewInMemory(time.Minute)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		limiter = ratelimit.NewRedis(rdb, time.Minute)
		log.Info("login limiter backed by redis", "addr", cfg.RedisAddr)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Error("TRUSTED_PROXIES", "err", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(gw)
	emergency := services.EmergencyAdmin(cfg.EmergencyAdminUsername)

	auditSvc := services.NewAuditService(repos.AuditLogs, repos.Accounts, emergency)
	scanSvc := services.NewScanRecorder(repos.Badges)
	resolver := services.NewResolver(repos.Badges, scanSvc, auditSvc)
	sessionSvc := services.NewSessionService(
		repos.Accounts,
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL),
		auditSvc,
		limiter,
		services.SessionConfig{
			Emergency:         emergency,
			EmergencyPassHash: cfg.EmergencyAdminPasswordHash,
			LoginPerMinute:    cfg.LoginPerMinute,
		},
	)
	badgeSvc := services.NewBadgeService(repos.Badges, auditSvc, emergency)
	approvalSvc := services.NewApprovalService(repos.Accounts, auditSvc, emergency)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:       cfg,
		DB:        gw,
		Sessions:  sessionSvc,
		Resolver:  resolver,
		Audit:     auditSvc,
		Badges:    badgeSvc,
		Approvals: approvalSvc,
		Proxies:   proxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	gw.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = shutdownTracing(shutdownCtx)
}
