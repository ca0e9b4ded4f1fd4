package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/utils"
)

// AccountRepo mirrors the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id, name, email, phone, password_hash, role, avatar, is_active, created_at, updated_at"

func scanAccount(row interface{ Scan(...any) error }, a *model.Account) error {
	return row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.Role,
		&a.Avatar, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
}

// Create hashes password with the given bcrypt cost, inserts a and fills
// its ID.  A taken email yields ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account, password string, cost int) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (name, email, phone, password_hash, role) VALUES (?,?,?,?,?)",
		a.Name, a.Email, a.Phone, hash, a.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.PasswordHash = hash
	a.IsActive = true
	return nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.Account
	row := r.DB.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", email)
	if err := scanAccount(row, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (*model.Account, error) {
	var a model.Account
	row := r.DB.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	if err := scanAccount(row, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ProfileUpdate lists the self-service profile fields.  Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name   *string
	Phone  *string
	Avatar *string
}

// UpdateProfile applies u to the account and returns the stored row.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id uint64, u ProfileUpdate) (*model.Account, error) {
	var (
		sets []string
		args []any
	)
	if u.Name != nil {
		sets, args = append(sets, "name=?"), append(args, strings.TrimSpace(*u.Name))
	}
	if u.Phone != nil {
		sets, args = append(sets, "phone=?"), append(args, *u.Phone)
	}
	if u.Avatar != nil {
		sets, args = append(sets, "avatar=?"), append(args, strings.TrimSpace(*u.Avatar))
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE accounts SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// AccountFilter narrows List.  Search matches name or email.
type AccountFilter struct {
	Role   model.Role
	Search string
	Page   int
	Limit  int
}

// List returns one page of accounts (newest first) with the total number of
// matches and, for hosts, the count of their active listings.
func (r *AccountRepo) List(ctx context.Context, f AccountFilter) ([]model.Account, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Role != "" {
		where, args = append(where, "a.role=?"), append(args, f.Role)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		where, args = append(where, "(a.name LIKE ? OR a.email LIKE ?)"), append(args, like, like)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts a"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.Limit)
	q := `SELECT a.id, a.name, a.email, a.phone, a.password_hash, a.role, a.avatar, a.is_active, a.created_at, a.updated_at,
	             (SELECT COUNT(*) FROM spaces s WHERE s.host_id = a.id AND s.is_active = 1)
	      FROM accounts a` + clause + ` ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.Role,
			&a.Avatar, &a.IsActive, &a.CreatedAt, &a.UpdatedAt, &a.SpaceCount); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// AccountStats are the counters shown on an account's dashboard.
type AccountStats struct {
	SpacesCount       int `json:"spacesCount"`
	BookingsCount     int `json:"bookingsCount"`
	CompletedBookings int `json:"completedBookings"`
}

// Stats counts the account's active listings and its reservations.
func (r *AccountRepo) Stats(ctx context.Context, id uint64) (AccountStats, error) {
	var s AccountStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM spaces WHERE host_id = ? AND is_active = 1),
		  (SELECT COUNT(*) FROM reservations WHERE account_id = ?),
		  (SELECT COUNT(*) FROM reservations WHERE account_id = ? AND status = 'completed')`,
		id, id, id).Scan(&s.SpacesCount, &s.BookingsCount, &s.CompletedBookings)
	return s, err
}
