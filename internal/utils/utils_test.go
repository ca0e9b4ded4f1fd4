package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/spacehire/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, model.RoleHost, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	id, role, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, model.RoleHost, role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", 42, model.RoleGuest, 15)
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", 42, model.RoleGuest, -1)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "42", "role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "root",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	cases := map[string]struct{ secret, token string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"alg none":     {"s3cret", none},
		"unknown role": {"s3cret", badRole},
		"garbage":      {"s3cret", "not.a.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseAccessToken(tc.secret, tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))
}
