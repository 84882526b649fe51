package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

func newTestTokenService(now func() time.Time) TokenServiceDefault {
	return TokenServiceDefault{secret: []byte("test-secret"), issuer: "accounts", now: now}
}

func TestTokenService_IssueAndParse(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(time.Now)

	token, err := svc.Issue("id-1", "a@example.com", models.SubscriptionPro)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.ID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, models.SubscriptionPro, claims.Subscription)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	t.Parallel()

	fixed := time.Now()
	svc := newTestTokenService(func() time.Time { return fixed })

	first, err := svc.Issue("id-1", "a@example.com", models.SubscriptionStarter)
	require.NoError(t, err)
	second, err := svc.Issue("id-1", "a@example.com", models.SubscriptionStarter)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_ExpiredTokenIsUnauthorized(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer := newTestTokenService(func() time.Time { return issuedAt })

	token, err := issuer.Issue("id-1", "a@example.com", models.SubscriptionStarter)
	require.NoError(t, err)

	_, err = newTestTokenService(time.Now).Parse(token)
	require.Error(t, err)
	assert.True(t, core.IsUnauthorized(err))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenService_WrongSecretIsUnauthorized(t *testing.T) {
	t.Parallel()

	token, err := newTestTokenService(time.Now).Issue("id-1", "a@example.com", models.SubscriptionStarter)
	require.NoError(t, err)

	other := TokenServiceDefault{secret: []byte("other-secret"), issuer: "accounts", now: time.Now}
	_, err = other.Parse(token)
	assert.True(t, core.IsUnauthorized(err))
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "id-1",
		"iss": "accounts",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestTokenService(time.Now).Parse(unsigned)
	assert.True(t, core.IsUnauthorized(err))
}

func TestTokenService_MissingSecretFailsIssue(t *testing.T) {
	t.Parallel()

	svc := TokenServiceDefault{now: time.Now}

	_, err := svc.Issue("id-1", "a@example.com", models.SubscriptionStarter)
	require.Error(t, err)
	assert.Equal(t, core.ErrKeyTokenGenerationFailed, core.AsAccountError(err).Key)
}
