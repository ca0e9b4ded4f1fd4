package model

import "time"

// Role is the authorisation role of an account.
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleGuest || r == RoleHost || r == RoleAdmin
}

// Account mirrors the accounts table. PasswordHash never leaves the
// repository and handler layers.
type Account struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	IsActive     bool      `json:"isActive"`
	SpaceCount   int       `json:"spaceCount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountSummary is the projection embedded in reservation and message responses.
type AccountSummary struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RefreshToken models an entry in refresh_tokens. Only the SHA-256 hash of
// the raw token is stored.
type RefreshToken struct {
	ID        uint64
	AccountID uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
