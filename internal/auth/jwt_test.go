package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tm := NewTokenManager("secret", "checkin", time.Hour)
	tok, exp, err := tm.Issue("42", "security", false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", c.Subject)
	assert.Equal(t, "security", c.Role)
	assert.False(t, c.Emergency)
}

func TestParseRejects(t *testing.T) {
	tm := NewTokenManager("secret", "checkin", time.Hour)
	good, _, err := tm.Issue("42", "user", false)
	require.NoError(t, err)

	other := NewTokenManager("other-secret", "checkin", time.Hour)
	_, err = other.Parse(good)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour)
	_, err = wrongIssuer.Parse(good)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", "checkin", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("42", "user", false)
	require.NoError(t, err)
	_, err = tm.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42", Issuer: "checkin", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("pw", h))
	assert.Error(t, VerifyPassword("nope", h))
	assert.NotPanics(t, func() { BurnCompare("pw") })
}
