package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens

	"github.com/iliyamo/spacehire/internal/model"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or missing its claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens.  Only a SHA-256 hash of Raw is stored in the database.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// Claims are the custom claims of an access token.  The subject holds the
// account id as a decimal string.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 JWT for an account.
func NewAccessToken(secret string, accountID uint64, role model.Role, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(accountID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and returns the account id and
// role it was issued for.  Only HS256 is accepted.
func ParseAccessToken(secret, raw string) (uint64, model.Role, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return 0, "", ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 || !claims.Role.Valid() {
		return 0, "", ErrInvalidToken
	}
	return id, claims.Role, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as hex.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
