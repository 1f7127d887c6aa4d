package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/checkin-backend/internal/auth"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/ratelimit"
	"github.com/baharkarakas/checkin-backend/internal/repository/repotest"
)

const testEmergency = EmergencyAdmin("root@event.local")

type fixture struct {
	store     *repotest.Store
	audit     *AuditService
	scans     *ScanRecorder
	resolver  *Resolver
	badges    *BadgeService
	approvals *ApprovalService
	sessions  *SessionService
	tokens    *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := repotest.New()
	audit := NewAuditService(st.AuditLogs(), st.Accounts(), testEmergency)
	scans := NewScanRecorder(st.Badges())
	tm := auth.NewTokenManager("test-secret", "checkin-test", time.Hour)
	return &fixture{
		store:     st,
		audit:     audit,
		scans:     scans,
		resolver:  NewResolver(st.Badges(), scans, audit),
		badges:    NewBadgeService(st.Badges(), audit, testEmergency),
		approvals: NewApprovalService(st.Accounts(), audit, testEmergency),
		sessions: NewSessionService(st.Accounts(), tm, audit, ratelimit.NewInMemory(time.Minute),
			SessionConfig{Emergency: testEmergency, LoginPerMinute: 5}),
		tokens: tm,
	}
}

func (f *fixture) account(t *testing.T, name string, role models.Role, status models.ApprovalStatus) models.Account {
	t.Helper()
	return f.store.AddAccount(models.Account{
		Name:           name,
		Email:          name + "@event.local",
		Role:           role,
		ApprovalStatus: status,
	})
}

// holder creates an account with a badge and returns both.
func (f *fixture) holder(t *testing.T, name string, status models.ApprovalStatus) (models.Account, models.Badge) {
	t.Helper()
	a := f.account(t, name, models.RoleUser, status)
	b, err := f.store.Badges().Create(t.Context(), a.ID, NewBadgeToken())
	require.NoError(t, err)
	return a, b
}

func callerOf(a models.Account) *Caller { return callerFor(a) }

func emergencyCaller() *Caller {
	return &Caller{Identity: string(testEmergency), Name: EmergencyAdminName, Email: string(testEmergency), Role: models.RoleAdmin}
}
