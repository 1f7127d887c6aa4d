package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/db"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

type badgesRepo struct{ db DBTX }

func NewBadges(db DBTX) repository.Badges {
	return &badgesRepo{db: db}
}

const holderSelect = `
SELECT b.id::text, b.account_id, b.token, b.created_at, b.last_scanned_at, b.scan_count,
       a.id, a.name, a.email, a.image, a.role::text, a.approval_status, a.created_at, a.updated_at,
       p.id::text, p.bags_checked, p.attendance, p.received_food, p.diet::text, p.allergens, p.created_at, p.updated_at
  FROM badges b
  JOIN accounts a ON a.id = b.account_id
  LEFT JOIN profiles p ON p.account_id = a.id`

func scanHolder(row pgx.Row) (models.BadgeHolder, error) {
	var (
		h models.BadgeHolder

		profileID, diet, allergens            *string
		bagsChecked, attendance, receivedFood *bool
		profileCreated, profileUpdated        *time.Time
	)
	err := row.Scan(
		&h.Badge.ID, &h.Badge.AccountID, &h.Badge.Token, &h.Badge.CreatedAt, &h.Badge.LastScannedAt, &h.Badge.ScanCount,
		&h.Account.ID, &h.Account.Name, &h.Account.Email, &h.Account.Image, &h.Account.Role, &h.Account.ApprovalStatus,
		&h.Account.CreatedAt, &h.Account.UpdatedAt,
		&profileID, &bagsChecked, &attendance, &receivedFood, &diet, &allergens, &profileCreated, &profileUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.BadgeHolder{}, repository.ErrNotFound
	}
	if err != nil {
		return models.BadgeHolder{}, err
	}
	if profileID != nil {
		p := &models.Profile{ID: *profileID, AccountID: h.Account.ID, Allergens: allergens}
		if bagsChecked != nil {
			p.BagsChecked = *bagsChecked
		}
		if attendance != nil {
			p.Attendance = *attendance
		}
		if receivedFood != nil {
			p.ReceivedFood = *receivedFood
		}
		if diet != nil {
			p.Diet = models.Diet(*diet)
		}
		if profileCreated != nil {
			p.CreatedAt = *profileCreated
		}
		if profileUpdated != nil {
			p.UpdatedAt = *profileUpdated
		}
		h.Profile = p
	}
	return h, nil
}

func (r *badgesRepo) FindByAccountID(ctx context.Context, accountID int64) (models.BadgeHolder, error) {
	return scanHolder(r.db.QueryRow(ctx, holderSelect+` WHERE b.account_id = $1`, accountID))
}

func (r *badgesRepo) FindApprovedByToken(ctx context.Context, token string) (models.BadgeHolder, error) {
	return scanHolder(r.db.QueryRow(ctx,
		holderSelect+` WHERE b.token = $1 AND a.approval_status = 'approved'`, token))
}

func (r *badgesRepo) IncrementScan(ctx context.Context, token string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE badges
		    SET scan_count = scan_count + 1,
		        last_scanned_at = now()
		  WHERE token = $1`,
		token,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *badgesRepo) Create(ctx context.Context, accountID int64, token string) (models.Badge, error) {
	var b models.Badge
	err := r.db.QueryRow(ctx,
		`INSERT INTO badges (account_id, token)
		 SELECT id, $2 FROM accounts WHERE id = $1
		 RETURNING id::text, account_id, token, created_at, last_scanned_at, scan_count`,
		accountID, token,
	).Scan(&b.ID, &b.AccountID, &b.Token, &b.CreatedAt, &b.LastScannedAt, &b.ScanCount)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return models.Badge{}, repository.ErrNotFound
	case db.IsUniqueViolation(err):
		return models.Badge{}, repository.ErrConflict
	}
	return b, err
}
