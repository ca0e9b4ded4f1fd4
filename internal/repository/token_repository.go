package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, accountID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (account_id, token_hash, expires_at) VALUES (?,?,?)",
		accountID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the account id if a non-revoked, non-expired token
// exists.  Anything else is reported as sql.ErrNoRows.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		accountID uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT account_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&accountID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return accountID, nil
}

// Rotate revokes oldHash and stores newHash in one transaction, so a
// refresh token can be exchanged exactly once.
func (r *TokenRepo) Rotate(ctx context.Context, accountID uint64, oldHash, newHash string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(3) WHERE token_hash=? AND account_id=? AND revoked_at IS NULL",
		oldHash, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (account_id, token_hash, expires_at) VALUES (?,?,?)",
		accountID, newHash, exp.UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(3) WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForAccount revokes all of an account's active tokens.
func (r *TokenRepo) RevokeAllForAccount(ctx context.Context, accountID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(3) WHERE account_id=? AND revoked_at IS NULL",
		accountID)
	return err
}
