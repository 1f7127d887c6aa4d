package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

type auditLogsRepo struct{ db DBTX }

func NewAuditLogs(db DBTX) repository.AuditLogs {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, l *models.AuditLog) error {
	var details any
	if len(l.Details) > 0 {
		details = string(l.Details)
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO audit_logs (actor_id, target_user_id, action, details, ip_address, user_agent,
		                         actor_name, actor_email, target_user_name, target_user_email)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		l.ActorAccountID, l.TargetAccountID, string(l.Action), details, l.IPAddress, l.UserAgent,
		l.ActorName, l.ActorEmail, l.TargetName, l.TargetEmail,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *auditLogsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted int64
	err := r.db.QueryRow(ctx, `DELETE FROM audit_logs WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *auditLogsRepo) List(ctx context.Context, f repository.AuditFilter) ([]models.AuditLog, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Action != nil {
		add("action = $%d", *f.Action)
	}
	if f.ActorID != nil {
		add("actor_id = $%d", *f.ActorID)
	}
	if f.TargetID != nil {
		add("target_user_id = $%d", *f.TargetID)
	}
	if f.Since != nil {
		add("created_at >= $%d", *f.Since)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.PageLimit()
	offset := max(f.Offset, 0)
	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx,
		`SELECT id, actor_id, target_user_id, action, details, ip_address, user_agent,
		        actor_name, actor_email, target_user_name, target_user_email, created_at
		   FROM audit_logs`+clause+
			fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]models.AuditLog, 0, limit)
	for rows.Next() {
		var (
			l       models.AuditLog
			action  string
			details []byte
		)
		if err := rows.Scan(&l.ID, &l.ActorAccountID, &l.TargetAccountID, &action, &details, &l.IPAddress, &l.UserAgent,
			&l.ActorName, &l.ActorEmail, &l.TargetName, &l.TargetEmail, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		l.Action = models.ParseAction(action)
		if !l.Action.Known() {
			l.RawAction = action
		}
		l.Details = details
		out = append(out, l)
	}
	return out, total, rows.Err()
}
