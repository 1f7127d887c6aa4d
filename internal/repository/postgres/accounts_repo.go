package postgres

import (
	"context"
	"errors"

	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

type accountsRepo struct{ db DBTX }

func NewAccounts(db DBTX) repository.Accounts {
	return &accountsRepo{db: db}
}

const accountColumns = `id, name, email, image, role::text, approval_status, password_hash, approved_by, approved_at, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Image, &a.Role, &a.ApprovalStatus,
		&a.PasswordHash, &a.ApprovedBy, &a.ApprovedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, repository.ErrNotFound
	}
	return a, err
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (models.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email)=lower($1)`, email))
}

func (r *accountsRepo) Contacts(ctx context.Context, ids ...int64) (map[int64]models.Contact, error) {
	out := make(map[int64]models.Contact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name, email FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			c  models.Contact
		)
		if err := rows.Scan(&id, &c.Name, &c.Email); err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, rows.Err()
}

func (r *accountsRepo) UpdateApproval(ctx context.Context, id int64, status models.ApprovalStatus, approvedBy *int64) (models.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`UPDATE accounts
		    SET approval_status = $2,
		        approved_by = $3,
		        approved_at = CASE WHEN $2 = 'approved' THEN now() ELSE NULL END
		  WHERE id = $1
		  RETURNING `+accountColumns,
		id, string(status), approvedBy,
	))
}
