package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/metrics"
	"github.com/baharkarakas/checkin-backend/internal/models"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
)

const (
	minBadgeTokenLen = 10
	maxBadgeTokenLen = 50

	// side effects outlive the request but not forever
	sideEffectTimeout = 5 * time.Second
)

var (
	numericToken = regexp.MustCompile(`^\d+$`)
	badgeToken   = regexp.MustCompile(`(?i)^[a-z0-9]+-[a-z0-9]+$`)
)

type TokenKind int

const (
	TokenInvalid TokenKind = iota
	TokenNumeric
	TokenBadge
)

// Classify decides which lookup path a raw identifier takes.
func Classify(token string) TokenKind {
	switch {
	case numericToken.MatchString(token):
		return TokenNumeric
	case badgeToken.MatchString(token) && len(token) >= minBadgeTokenLen && len(token) <= maxBadgeTokenLen:
		return TokenBadge
	default:
		return TokenInvalid
	}
}

type Outcome int

const (
	OutcomeUnauthenticated Outcome = iota
	OutcomeInvalid
	OutcomeNotFound
	OutcomeRedirect
	OutcomeResolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeResolved:
		return "resolved"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Resolution struct {
	Outcome Outcome
	// Message is set for OutcomeInvalid.
	Message string
	// CanonicalToken is set for OutcomeRedirect.
	CanonicalToken string
	// Holder is set for OutcomeResolved.
	Holder models.BadgeHolder
}

type Resolver struct {
	badges repo.Badges
	scans  *ScanRecorder
	audit  *AuditService
}

func NewResolver(b repo.Badges, scans *ScanRecorder, audit *AuditService) *Resolver {
	return &Resolver{badges: b, scans: scans, audit: audit}
}

// Resolve maps a scanned identifier to the badge holder it names. Only
// approved accounts ever resolve; unapproved and missing look the same.
func (r *Resolver) Resolve(ctx context.Context, token string, caller *Caller) (Resolution, error) {
	res, err := r.resolve(ctx, token, caller)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		return Resolution{}, err
	}
	metrics.ResolutionsTotal.WithLabelValues(res.Outcome.String()).Inc()
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, token string, caller *Caller) (Resolution, error) {
	if caller == nil {
		return Resolution{Outcome: OutcomeUnauthenticated}, nil
	}
	if strings.TrimSpace(token) == "" {
		return Resolution{Outcome: OutcomeInvalid, Message: "Invalid NFC identifier"}, nil
	}

	switch Classify(token) {
	case TokenNumeric:
		return r.byAccountID(ctx, token)
	case TokenBadge:
	default:
		return Resolution{Outcome: OutcomeInvalid, Message: "Invalid UUID format"}, nil
	}

	h, err := r.badges.FindApprovedByToken(ctx, token)
	if isNotFound(err) {
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("find badge: %w", err)
	}

	r.recordVisit(ctx, h, caller)
	return Resolution{Outcome: OutcomeResolved, Holder: h}, nil
}

func (r *Resolver) byAccountID(ctx context.Context, token string) (Resolution, error) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		// out of int64 range: no such account
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	h, err := r.badges.FindByAccountID(ctx, id)
	if isNotFound(err) {
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("find badge by account: %w", err)
	}
	if !h.Account.Approved() {
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	return Resolution{Outcome: OutcomeRedirect, CanonicalToken: h.Badge.Token}, nil
}

// recordVisit runs the scan update and the audit append side by side and
// waits for both. Neither can change the resolution.
func (r *Resolver) recordVisit(ctx context.Context, h models.BadgeHolder, caller *Caller) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	targetID := h.Account.ID
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.scans.RecordScan(ctx, h.Badge.Token)
	}()
	go func() {
		defer wg.Done()
		r.audit.Append(ctx, AuditEvent{
			Actor:    caller,
			TargetID: &targetID,
			Action:   models.ActionBadgeScan,
			Details:  map[string]any{"uuid": h.Badge.Token},
		})
	}()
	wg.Wait()
	slog.DebugContext(ctx, "badge scanned", "account_id", targetID, "by", caller.Identity)
}
