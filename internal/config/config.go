package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Migrate  bool   `env:"APP_MIGRATE" envDefault:"false"`
	// WebRoot, when set, is served behind the route guard.
	WebRoot string `env:"WEB_ROOT"`

	ServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"checkin-backend"`
	OTLPEndpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	TraceSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	// DatabaseURL has no default: an empty value makes every query fail
	// with db.ErrNotConfigured instead of silently dialing localhost.
	DatabaseURL  string `env:"DATABASE_URL"`
	DBCACertPath string `env:"DB_CA_CERT_PATH" envDefault:"certs/ca.pem"`
	DBMaxConns   int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	JWTSecret  string        `env:"JWT_SECRET" envDefault:"changeme-secret"`
	JWTIssuer  string        `env:"JWT_ISSUER" envDefault:"checkin-backend"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	EmergencyAdminUsername     string `env:"EMERGENCY_ADMIN_USERNAME"`
	EmergencyAdminPasswordHash string `env:"EMERGENCY_ADMIN_PASSWORD_HASH"`

	RedisAddr      string   `env:"REDIS_ADDR"`
	RedisPassword  string   `env:"REDIS_PASSWORD"`
	RedisDB        int      `env:"REDIS_DB" envDefault:"0"`
	RateRPS        int      `env:"RATE_RPS" envDefault:"100"`
	LoginPerMinute int      `env:"LOGIN_ATTEMPTS_PER_MINUTE" envDefault:"10"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	// TrustedProxies are CIDRs or addresses whose X-Forwarded-For is believed.
	// Empty means limiters key on the socket peer only.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.EmergencyAdminUsername = strings.TrimSpace(cfg.EmergencyAdminUsername)
	return cfg, nil
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}
