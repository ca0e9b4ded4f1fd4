package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/spacehire/internal/model"
)

// ReviewRepo stores reviews.  The unique key on reservation_id enforces one
// review per reservation even under concurrent submissions.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv and fills ID and CreatedAt.  A second review for the
// same reservation yields ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	c := rv.Categories
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (reservation_id, space_id, guest_id, host_id, rating, comment,
		                     cleanliness, communication, location, value_for_money)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rv.ReservationID, rv.SpaceID, rv.GuestID, rv.HostID, rv.Rating, rv.Comment,
		nullInt(c.Cleanliness), nullInt(c.Communication), nullInt(c.Location), nullInt(c.Value))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM reviews WHERE id = ?", rv.ID).Scan(&rv.CreatedAt)
}

// ListBySpace returns a listing's reviews, newest first, with the guest's name.
func (r *ReviewRepo) ListBySpace(ctx context.Context, spaceID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.reservation_id, v.space_id, v.guest_id, v.host_id, v.rating, v.comment,
		       v.cleanliness, v.communication, v.location, v.value_for_money, v.created_at,
		       COALESCE(a.name, '')
		FROM reviews v
		LEFT JOIN accounts a ON a.id = v.guest_id
		WHERE v.space_id = ?
		ORDER BY v.created_at DESC, v.id DESC`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var (
			rv                   model.Review
			clean, comm, loc, vf sql.NullInt64
		)
		if err := rows.Scan(&rv.ID, &rv.ReservationID, &rv.SpaceID, &rv.GuestID, &rv.HostID, &rv.Rating, &rv.Comment,
			&clean, &comm, &loc, &vf, &rv.CreatedAt, &rv.GuestName); err != nil {
			return nil, err
		}
		rv.Categories = model.ReviewCategories{
			Cleanliness:   intPtr(clean),
			Communication: intPtr(comm),
			Location:      intPtr(loc),
			Value:         intPtr(vf),
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
