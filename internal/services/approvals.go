package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baharkarakas/checkin-backend/internal/models"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
)

type ApprovalService struct {
	accounts  repo.Accounts
	audit     *AuditService
	emergency EmergencyAdmin
}

func NewApprovalService(a repo.Accounts, audit *AuditService, emergency EmergencyAdmin) *ApprovalService {
	return &ApprovalService{accounts: a, audit: audit, emergency: emergency}
}

// Decide approves or rejects a pending account. Rejecting an approved
// account takes it out of badge resolution immediately.
func (s *ApprovalService) Decide(ctx context.Context, accountID int64, status models.ApprovalStatus, requester *Caller) (models.Account, error) {
	if requester == nil {
		return models.Account{}, ErrUnauthorized
	}
	if !s.emergency.AdminOrEmergency(requester) {
		return models.Account{}, ErrForbidden
	}
	var action models.Action
	switch status {
	case models.ApprovalApproved:
		action = models.ActionAccountApproved
	case models.ApprovalRejected:
		action = models.ActionAccountRejected
	default:
		return models.Account{}, invalid("status must be approved or rejected")
	}

	a, err := s.accounts.UpdateApproval(ctx, accountID, status, requester.AccountID)
	if isNotFound(err) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("update approval: %w", err)
	}
	s.audit.Append(ctx, AuditEvent{
		Actor:    requester,
		TargetID: &accountID,
		Action:   action,
		Details:  map[string]any{"status": string(status)},
	})
	slog.InfoContext(ctx, "account approval changed", "account_id", accountID, "status", status)
	return a, nil
}
