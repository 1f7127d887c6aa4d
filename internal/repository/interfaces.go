package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/models"
)

var (
	ErrNotFound = errors.New("repository: not found")
	ErrConflict = errors.New("repository: conflict")
)

type Accounts interface {
	GetByID(ctx context.Context, id int64) (models.Account, error)
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	// Contacts returns name/email for the ids that still exist.
	Contacts(ctx context.Context, ids ...int64) (map[int64]models.Contact, error)
	UpdateApproval(ctx context.Context, id int64, status models.ApprovalStatus, approvedBy *int64) (models.Account, error)
}

type Badges interface {
	// FindByAccountID returns the badge and its owner regardless of approval.
	FindByAccountID(ctx context.Context, accountID int64) (models.BadgeHolder, error)
	// FindApprovedByToken only matches badges whose owner is approved.
	FindApprovedByToken(ctx context.Context, token string) (models.BadgeHolder, error)
	// IncrementScan bumps scan_count and last_scanned_at in one statement.
	IncrementScan(ctx context.Context, token string) error
	Create(ctx context.Context, accountID int64, token string) (models.Badge, error)
}

type AuditFilter struct {
	Action   *string
	ActorID  *int64
	TargetID *int64
	Since    *time.Time
	Limit    int
	Offset   int
}

const MaxAuditPage = 100

// PageLimit is Limit clamped to 1..MaxAuditPage; zero means a full page.
func (f AuditFilter) PageLimit() int {
	if f.Limit == 0 {
		return MaxAuditPage
	}
	return min(max(f.Limit, 1), MaxAuditPage)
}

type AuditLogs interface {
	Create(ctx context.Context, l *models.AuditLog) error
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f AuditFilter) ([]models.AuditLog, int, error)
}
