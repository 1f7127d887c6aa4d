package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Check-in
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_resolutions_total",
			Help: "Identifier resolutions by outcome",
		},
		[]string{"outcome"}, // resolved|redirect|not_found|invalid|unauthenticated|error
	)
	ScanUpdateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_scan_update_failures_total",
			Help: "Scan counter updates that failed and were swallowed",
		},
	)
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_audit_write_failures_total",
			Help: "Audit log writes that failed and were swallowed",
		},
	)

	// Auth
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"}, // ok|emergency|denied|limited
	)
)

// /metrics endpoint'i için handler
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(ScanUpdateFailures)
	prometheus.MustRegister(AuditWriteFailures)
	prometheus.MustRegister(LoginAttempts)
}
