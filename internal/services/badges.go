package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/baharkarakas/checkin-backend/internal/models"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
)

type BadgeService struct {
	badges    repo.Badges
	audit     *AuditService
	emergency EmergencyAdmin
	newToken  func() string
}

func NewBadgeService(b repo.Badges, audit *AuditService, emergency EmergencyAdmin) *BadgeService {
	return &BadgeService{badges: b, audit: audit, emergency: emergency, newToken: NewBadgeToken}
}

// NewBadgeToken renders a random UUID as two base-36 halves joined by a
// hyphen, e.g. "kptfal4nobb-esj3nkod5g".
func NewBadgeToken() string {
	for {
		u := uuid.New()
		hi := binary.BigEndian.Uint64(u[:8])
		lo := binary.BigEndian.Uint64(u[8:])
		tok := strconv.FormatUint(hi, 36) + "-" + strconv.FormatUint(lo, 36)
		if Classify(tok) == TokenBadge {
			return tok
		}
	}
}

// Issue links a fresh badge token to the account. An account holds at most
// one badge.
func (s *BadgeService) Issue(ctx context.Context, accountID int64, requester *Caller) (models.Badge, error) {
	if requester == nil {
		return models.Badge{}, ErrUnauthorized
	}
	if !s.emergency.AdminOrEmergency(requester) {
		return models.Badge{}, ErrForbidden
	}
	b, err := s.badges.Create(ctx, accountID, s.newToken())
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return models.Badge{}, ErrNotFound
	case errors.Is(err, repo.ErrConflict):
		return models.Badge{}, ErrConflict
	case err != nil:
		return models.Badge{}, fmt.Errorf("create badge: %w", err)
	}
	s.audit.Append(ctx, AuditEvent{
		Actor:    requester,
		TargetID: &accountID,
		Action:   models.ActionBadgeLinkCreate,
		Details:  map[string]any{"uuid": b.Token},
	})
	slog.InfoContext(ctx, "badge issued", "account_id", accountID, "by", requester.Identity)
	return b, nil
}
