package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/checkin-backend/internal/models"
)

func TestClassify(t *testing.T) {
	cases := map[string]TokenKind{
		"42":                     TokenNumeric,
		"kptfal4nobb-esj3nkod5g": TokenBadge,
		"KPTFAL4NOBB-ESJ3NKOD5G": TokenBadge,
		"abcd-efgh":              TokenInvalid, // too short
		"abc-def-ghi-jkl":        TokenInvalid,
		"not a uuid!":            TokenInvalid,
		"kptfal4nobb_esj3nkod5g": TokenInvalid,
		"-kptfal4nobbesj3nkod5g": TokenInvalid,
		strings.Repeat("a", 30) + "-" + strings.Repeat("b", 20): TokenInvalid, // 51 chars
	}
	for in, want := range cases {
		assert.Equal(t, want, Classify(in), in)
	}
}

func TestNewBadgeTokenIsBadgeShaped(t *testing.T) {
	seen := map[string]bool{}
	for range 200 {
		tok := NewBadgeToken()
		require.Equal(t, TokenBadge, Classify(tok), tok)
		require.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestResolveUnauthenticated(t *testing.T) {
	f := newFixture(t)
	_, b := f.holder(t, "ana", models.ApprovalApproved)

	for _, tok := range []string{b.Token, "", "garbage", "1"} {
		res, err := f.resolver.Resolve(t.Context(), tok, nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnauthenticated, res.Outcome, tok)
	}
	got, _ := f.store.Badge(b.Token)
	assert.Zero(t, got.ScanCount)
	assert.Empty(t, f.store.Logs())
}

func TestResolveInvalid(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))

	res, err := f.resolver.Resolve(t.Context(), "   ", staff)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Equal(t, "Invalid NFC identifier", res.Message)

	res, err = f.resolver.Resolve(t.Context(), "not a uuid!", staff)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Equal(t, "Invalid UUID format", res.Message)
}

func TestResolveBadge(t *testing.T) {
	f := newFixture(t)
	guard := f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved)
	a, b := f.holder(t, "ana", models.ApprovalApproved)
	f.store.SetProfile(models.Profile{ID: "p1", AccountID: a.ID, Diet: models.DietVeg})

	res, err := f.resolver.Resolve(t.Context(), b.Token, callerOf(guard))
	require.NoError(t, err)
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, a.ID, res.Holder.Account.ID)
	require.NotNil(t, res.Holder.Profile)
	assert.Equal(t, models.DietVeg, res.Holder.Profile.Diet)

	got, _ := f.store.Badge(b.Token)
	assert.EqualValues(t, 1, got.ScanCount)
	assert.NotNil(t, got.LastScannedAt)

	logs := f.store.Logs()
	require.Len(t, logs, 1)
	l := logs[0]
	assert.Equal(t, models.ActionBadgeScan, l.Action)
	assert.Equal(t, guard.ID, *l.ActorAccountID)
	assert.Equal(t, a.ID, *l.TargetAccountID)
	assert.Equal(t, "ana", *l.TargetName)
	assert.Equal(t, "guard@event.local", *l.ActorEmail)
	assert.JSONEq(t, `{"uuid":"`+b.Token+`"}`, string(l.Details))
}

func TestResolveNeverReturnsUnapproved(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))

	for _, st := range []models.ApprovalStatus{models.ApprovalPending, models.ApprovalRejected} {
		a, b := f.holder(t, "u-"+string(st), st)

		res, err := f.resolver.Resolve(t.Context(), b.Token, staff)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome, "badge token, %s", st)

		res, err = f.resolver.Resolve(t.Context(), strconv.FormatInt(a.ID, 10), staff)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome, "numeric id, %s", st)

		got, _ := f.store.Badge(b.Token)
		assert.Zero(t, got.ScanCount)
	}
	assert.Empty(t, f.store.Logs())
}

func TestResolveNumericRedirects(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))
	a, b := f.holder(t, "ana", models.ApprovalApproved)

	res, err := f.resolver.Resolve(t.Context(), strconv.FormatInt(a.ID, 10), staff)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirect, res.Outcome)
	assert.Equal(t, b.Token, res.CanonicalToken)

	// a redirect is not a scan
	got, _ := f.store.Badge(b.Token)
	assert.Zero(t, got.ScanCount)
}

func TestResolveNumericWithoutBadge(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))
	a := f.account(t, "nobadge", models.RoleUser, models.ApprovalApproved)

	for _, tok := range []string{strconv.FormatInt(a.ID, 10), "999999", "99999999999999999999999"} {
		res, err := f.resolver.Resolve(t.Context(), tok, staff)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome, tok)
	}
}

func TestResolveRoundTrip(t *testing.T) {
	f := newFixture(t)
	admin := callerOf(f.account(t, "boss", models.RoleAdmin, models.ApprovalApproved))
	a := f.account(t, "ana", models.RoleUser, models.ApprovalApproved)

	b, err := f.badges.Issue(t.Context(), a.ID, admin)
	require.NoError(t, err)

	res, err := f.resolver.Resolve(t.Context(), b.Token, admin)
	require.NoError(t, err)
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, a.ID, res.Holder.Account.ID)
}

func TestResolveConcurrentScansAllCount(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))
	_, b := f.holder(t, "ana", models.ApprovalApproved)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.resolver.Resolve(t.Context(), b.Token, staff)
			assert.NoError(t, err)
			assert.Equal(t, OutcomeResolved, res.Outcome)
		}()
	}
	wg.Wait()

	got, _ := f.store.Badge(b.Token)
	assert.EqualValues(t, n, got.ScanCount)
	assert.Len(t, f.store.Logs(), n)
}

func TestResolveSideEffectFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))
	_, b := f.holder(t, "ana", models.ApprovalApproved)
	f.store.IncrementErr = errors.New("disk full")
	f.store.AuditErr = errors.New("audit table locked")

	res, err := f.resolver.Resolve(t.Context(), b.Token, staff)
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
}

func TestResolveLookupFailureIsAnError(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))
	_, b := f.holder(t, "ana", models.ApprovalApproved)
	f.store.LookupErr = errors.New("connection reset")

	_, err := f.resolver.Resolve(t.Context(), b.Token, staff)
	require.Error(t, err)
	assert.ErrorIs(t, err, f.store.LookupErr)
}

func TestResolveSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	staff := callerOf(f.account(t, "guard", models.RoleSecurity, models.ApprovalApproved))
	_, b := f.holder(t, "ana", models.ApprovalApproved)

	ctx, cancel := context.WithCancel(t.Context())
	h, err := f.store.Badges().FindApprovedByToken(ctx, b.Token)
	require.NoError(t, err)
	cancel()
	f.resolver.recordVisit(ctx, h, staff)

	got, _ := f.store.Badge(b.Token)
	assert.EqualValues(t, 1, got.ScanCount)
	assert.Len(t, f.store.Logs(), 1)
}
