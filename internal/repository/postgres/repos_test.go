package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/repository"
)

var now = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func holderRow(status string, withProfile bool) fakeRow {
	vals := []any{
		"b-1", int64(7), "kptfal4nobb-esj3nkod5g", now, nil, int64(3),
		int64(7), "Ana", "ana@event.local", nil, "user", status, now, now,
	}
	if withProfile {
		vals = append(vals, "p-1", true, false, true, "veg", "peanuts", now, now)
	} else {
		vals = append(vals, nil, nil, nil, nil, nil, nil, nil, nil)
	}
	return fakeRow{values: vals}
}

func TestIncrementScanIsOneStatement(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	r := NewBadges(db)

	require.NoError(t, r.IncrementScan(context.Background(), "kptfal4nobb-esj3nkod5g"))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "scan_count = scan_count + 1")
	assert.Contains(t, db.calls[0].sql, "last_scanned_at = now()")
	assert.Equal(t, []any{"kptfal4nobb-esj3nkod5g"}, db.calls[0].args)
}

func TestIncrementScanNoRows(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	err := NewBadges(db).IncrementScan(context.Background(), "gone-badge1234")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	db = &fakeDB{execErr: errors.New("boom")}
	err = NewBadges(db).IncrementScan(context.Background(), "gone-badge1234")
	assert.EqualError(t, err, "boom")
}

func TestFindApprovedByToken(t *testing.T) {
	db := &fakeDB{rows: []fakeRow{holderRow("approved", true)}}
	h, err := NewBadges(db).FindApprovedByToken(context.Background(), "kptfal4nobb-esj3nkod5g")
	require.NoError(t, err)

	assert.Contains(t, db.calls[0].sql, "a.approval_status = 'approved'")
	assert.Equal(t, "Ana", h.Account.Name)
	assert.Equal(t, models.RoleUser, h.Account.Role)
	assert.EqualValues(t, 3, h.Badge.ScanCount)
	require.NotNil(t, h.Profile)
	assert.Equal(t, models.DietVeg, h.Profile.Diet)
	assert.Equal(t, int64(7), h.Profile.AccountID)
	assert.Equal(t, "peanuts", *h.Profile.Allergens)
}

func TestFindByAccountIDWithoutProfile(t *testing.T) {
	db := &fakeDB{rows: []fakeRow{holderRow("pending", false)}}
	h, err := NewBadges(db).FindByAccountID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, h.Profile)
	assert.False(t, h.Account.Approved())
	assert.Equal(t, []any{int64(7)}, db.calls[0].args)

	_, err = NewBadges(&fakeDB{}).FindByAccountID(context.Background(), 8)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateBadge(t *testing.T) {
	db := &fakeDB{rows: []fakeRow{{values: []any{"b-9", int64(7), "tok-abcdefgh", now, nil, int64(0)}}}}
	b, err := NewBadges(db).Create(context.Background(), 7, "tok-abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, "tok-abcdefgh", b.Token)
	assert.Nil(t, b.LastScannedAt)

	_, err = NewBadges(&fakeDB{}).Create(context.Background(), 7, "tok-abcdefgh")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dup := &fakeDB{rows: []fakeRow{{err: &pgconn.PgError{Code: "23505", ConstraintName: "badges_account_id_key"}}}}
	_, err = NewBadges(dup).Create(context.Background(), 7, "tok-abcdefgh")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAccountsByEmailAndContacts(t *testing.T) {
	hash := "$2a$10$abc"
	db := &fakeDB{rows: []fakeRow{{values: []any{
		int64(7), "Ana", "ana@event.local", nil, "admin", "approved", hash, nil, nil, now, now,
	}}}}
	a, err := NewAccounts(db).GetByEmail(context.Background(), "ANA@event.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, a.Role)
	assert.Equal(t, hash, *a.PasswordHash)
	assert.Contains(t, db.calls[0].sql, "lower(email)=lower($1)")

	db = &fakeDB{sets: [][][]any{{{int64(7), "Ana", "ana@event.local"}, {int64(9), "Ben", "ben@event.local"}}}}
	cs, err := NewAccounts(db).Contacts(context.Background(), 7, 9, 11)
	require.NoError(t, err)
	assert.Equal(t, models.Contact{Name: "Ben", Email: "ben@event.local"}, cs[9])
	assert.Len(t, cs, 2)
	assert.Equal(t, []any{[]int64{7, 9, 11}}, db.calls[0].args)

	db = &fakeDB{}
	cs, err = NewAccounts(db).Contacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cs)
	assert.Empty(t, db.calls)
}

func TestAuditCreate(t *testing.T) {
	db := &fakeDB{rows: []fakeRow{{values: []any{int64(11), now}}}}
	actor := int64(7)
	name := "Ana"
	l := &models.AuditLog{
		ActorAccountID: &actor,
		Action:         models.ActionBadgeScan,
		Details:        json.RawMessage(`{"uuid":"x"}`),
		ActorName:      &name,
	}
	require.NoError(t, NewAuditLogs(db).Create(context.Background(), l))
	assert.EqualValues(t, 11, l.ID)
	assert.Equal(t, now, l.CreatedAt)

	args := db.calls[0].args
	assert.Equal(t, "badge_scan", args[2])
	assert.Equal(t, `{"uuid":"x"}`, args[3])
	assert.Contains(t, db.calls[0].sql, "$4::jsonb")

	db = &fakeDB{rows: []fakeRow{{values: []any{int64(12), now}}}}
	require.NoError(t, NewAuditLogs(db).Create(context.Background(), &models.AuditLog{Action: models.ActionEmergencyLogin}))
	assert.Nil(t, db.calls[0].args[3])
}

func TestAuditDelete(t *testing.T) {
	db := &fakeDB{rows: []fakeRow{{values: []any{int64(5)}}}}
	ok, err := NewAuditLogs(db).Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, db.calls[0].sql, "DELETE FROM audit_logs WHERE id = $1")

	ok, err = NewAuditLogs(&fakeDB{}).Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewAuditLogs(&fakeDB{rows: []fakeRow{{err: pgx.ErrTxClosed}}}).Delete(context.Background(), 5)
	assert.ErrorIs(t, err, pgx.ErrTxClosed)
}

func TestAuditList(t *testing.T) {
	actor := int64(7)
	db := &fakeDB{
		rows: []fakeRow{{values: []any{2}}},
		sets: [][][]any{{
			{int64(2), actor, nil, "nfc_scan", []byte(`{}`), nil, nil, "Ana", nil, nil, nil, now},
			{int64(1), actor, int64(9), "badge_scan", []byte(`{"uuid":"t"}`), "1.2.3.4", "curl", "Ana", "ana@event.local", "Ben", "ben@event.local", now},
		}},
	}
	action := "badge_scan"
	logs, total, err := NewAuditLogs(db).List(context.Background(), repository.AuditFilter{Action: &action, ActorID: &actor, Limit: 1000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, logs, 2)

	assert.Equal(t, models.ActionUnknown, logs[0].Action)
	assert.Equal(t, "nfc_scan", logs[0].RawAction)
	assert.Equal(t, models.ActionBadgeScan, logs[1].Action)
	assert.Equal(t, "Ben", *logs[1].TargetName)

	require.Len(t, db.calls, 2)
	assert.Contains(t, db.calls[0].sql, "WHERE action = $1 AND actor_id = $2")
	assert.Contains(t, db.calls[1].sql, "ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")
	assert.Equal(t, []any{"badge_scan", actor, 100, 0}, db.calls[1].args)
}

func TestAuditListLimitClamp(t *testing.T) {
	for _, tc := range []struct{ in, want int }{{0, 100}, {-4, 1}, {1, 1}, {50, 50}, {101, 100}, {250, 100}, {501, 100}} {
		db := &fakeDB{rows: []fakeRow{{values: []any{0}}}, sets: [][][]any{{}}}
		_, _, err := NewAuditLogs(db).List(context.Background(), repository.AuditFilter{Limit: tc.in})
		require.NoError(t, err)
		assert.Equal(t, []any{tc.want, 0}, db.calls[1].args, "limit %d", tc.in)
	}
}
