package postgres

import (
	"context"

	repo "github.com/baharkarakas/checkin-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *db.Gateway, *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	Accounts  repo.Accounts
	Badges    repo.Badges
	AuditLogs repo.AuditLogs
}

func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Accounts:  NewAccounts(db),
		Badges:    NewBadges(db),
		AuditLogs: NewAuditLogs(db),
	}
}
