package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/auth"
	"github.com/baharkarakas/checkin-backend/internal/metrics"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/ratelimit"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
)

const EmergencyAdminName = "Emergency Admin"

var ErrNotApproved = errors.New("account not approved")

type SessionConfig struct {
	Emergency         EmergencyAdmin
	EmergencyPassHash string
	LoginPerMinute    int
}

type SessionService struct {
	accounts repo.Accounts
	tokens   *auth.TokenManager
	audit    *AuditService
	limiter  ratelimit.Limiter
	cfg      SessionConfig
}

func NewSessionService(a repo.Accounts, tm *auth.TokenManager, audit *AuditService, lim ratelimit.Limiter, cfg SessionConfig) *SessionService {
	return &SessionService{accounts: a, tokens: tm, audit: audit, limiter: lim, cfg: cfg}
}

// LoginInput carries two addresses: IP is what the audit entry records,
// ClientIP is the proxy-verified address the attempt limiter keys on.
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	ClientIP  string
	UserAgent string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	Caller    *Caller
}

// RateLimitedError is returned by Login when the caller exhausted its attempts.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return "too many login attempts" }

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

func (s *SessionService) Login(ctx context.Context, in LoginInput) (Session, error) {
	if s.limiter != nil {
		key := in.ClientIP
		if key == "" {
			key = in.IP
		}
		d := s.limiter.Allow(ctx, "login:"+key, s.cfg.LoginPerMinute)
		if !d.Allowed {
			metrics.LoginAttempts.WithLabelValues("limited").Inc()
			return Session{}, &RateLimitedError{RetryAfter: d.RetryAfter(time.Now().UTC())}
		}
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return Session{}, invalid("email and password are required")
	}

	if s.cfg.Emergency != "" && email == strings.ToLower(string(s.cfg.Emergency)) {
		return s.emergencyLogin(ctx, in)
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if isNotFound(err) {
		auth.BurnCompare(in.Password)
		metrics.LoginAttempts.WithLabelValues("denied").Inc()
		return Session{}, ErrUnauthorized
	}
	if err != nil {
		return Session{}, fmt.Errorf("get account: %w", err)
	}
	if a.PasswordHash == nil || auth.VerifyPassword(in.Password, *a.PasswordHash) != nil {
		metrics.LoginAttempts.WithLabelValues("denied").Inc()
		return Session{}, ErrUnauthorized
	}
	if !a.Approved() {
		metrics.LoginAttempts.WithLabelValues("denied").Inc()
		return Session{}, ErrNotApproved
	}

	caller := callerFor(a)
	caller.IP, caller.UserAgent = in.IP, in.UserAgent
	token, exp, err := s.tokens.Issue(strconv.FormatInt(a.ID, 10), string(a.Role), false)
	if err != nil {
		return Session{}, err
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	s.audit.Append(ctx, AuditEvent{Actor: caller, TargetID: caller.AccountID, Action: models.ActionAccountLogin})
	slog.InfoContext(ctx, "login", "account_id", a.ID)
	return Session{Token: token, ExpiresAt: exp, Caller: caller}, nil
}

func (s *SessionService) emergencyLogin(ctx context.Context, in LoginInput) (Session, error) {
	if s.cfg.EmergencyPassHash == "" || auth.VerifyPassword(in.Password, s.cfg.EmergencyPassHash) != nil {
		metrics.LoginAttempts.WithLabelValues("denied").Inc()
		slog.WarnContext(ctx, "emergency admin login rejected", "ip", in.IP)
		return Session{}, ErrUnauthorized
	}
	caller := s.emergencyCaller()
	caller.IP, caller.UserAgent = in.IP, in.UserAgent
	token, exp, err := s.tokens.Issue(caller.Identity, string(caller.Role), true)
	if err != nil {
		return Session{}, err
	}
	metrics.LoginAttempts.WithLabelValues("emergency").Inc()
	s.audit.Append(ctx, AuditEvent{Actor: caller, Action: models.ActionEmergencyLogin})
	slog.WarnContext(ctx, "emergency admin logged in", "ip", in.IP)
	return Session{Token: token, ExpiresAt: exp, Caller: caller}, nil
}

// Authenticate turns a session token into a Caller, re-reading the stored
// account so role changes and revoked approvals apply immediately.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*Caller, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Emergency {
		c := s.emergencyCaller()
		if !s.cfg.Emergency.Matches(&Caller{Identity: claims.Subject}) {
			return nil, ErrUnauthorized
		}
		return c, nil
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}
	a, err := s.accounts.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load session account: %w", err)
	}
	if !a.Approved() {
		return nil, ErrUnauthorized
	}
	return callerFor(a), nil
}

func (s *SessionService) TTL() time.Duration { return s.tokens.TTL() }

func (s *SessionService) IsEmergency(c *Caller) bool { return s.cfg.Emergency.Matches(c) }

func (s *SessionService) emergencyCaller() *Caller {
	id := string(s.cfg.Emergency)
	return &Caller{Identity: id, Name: EmergencyAdminName, Email: id, Role: models.RoleAdmin}
}

// AccountIdentity namespaces stored accounts so no email, present or
// future, can equal the emergency identity.
func AccountIdentity(id int64) string { return "account:" + strconv.FormatInt(id, 10) }

func callerFor(a models.Account) *Caller {
	id := a.ID
	return &Caller{
		AccountID: &id,
		Identity:  AccountIdentity(a.ID),
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
	}
}
