package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/iliyamo/spacehire/internal/model"
)

// ListingRepo provides CRUD, search and rating maintenance for the spaces
// table.  Listings are never hard-deleted: SoftDelete clears is_active so
// reservations keep their foreign key.
type ListingRepo struct{ db *sql.DB }

// NewListingRepo returns a ListingRepo bound to db.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingColumns = `s.id, s.host_id, s.name, s.description, s.address, s.city, s.district,
	s.space_type, s.amenities, s.activity_types, s.price_per_hour, s.capacity, s.instant_booking,
	s.is_active, s.rating_average, s.rating_count, s.created_at, s.updated_at`

type rowScanner interface{ Scan(...any) error }

func scanListing(row rowScanner, l *model.Listing) error {
	var amenities, activities []byte
	if err := row.Scan(&l.ID, &l.HostID, &l.Name, &l.Description, &l.Address, &l.City, &l.District,
		&l.SpaceType, &amenities, &activities, &l.PricePerHour, &l.Capacity, &l.InstantBooking,
		&l.IsActive, &l.Rating.Average, &l.Rating.Count, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return err
	}
	l.Amenities = decodeList(amenities)
	l.ActivityTypes = decodeList(activities)
	return nil
}

func decodeList(raw []byte) []string {
	out := []string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// Create inserts l for its host and fills ID and timestamps.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO spaces (host_id, name, description, address, city, district, space_type,
		                    amenities, activity_types, price_per_hour, capacity, instant_booking)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.HostID, l.Name, l.Description, l.Address, l.City, l.District, l.SpaceType,
		encodeList(l.Amenities), encodeList(l.ActivityTypes), l.PricePerHour, l.Capacity, l.InstantBooking)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id), false)
	if err != nil {
		return err
	}
	*l = *created
	return nil
}

// GetByID loads one listing.  With activeOnly set, inactive listings are
// reported as sql.ErrNoRows.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64, activeOnly bool) (*model.Listing, error) {
	q := "SELECT " + listingColumns + " FROM spaces s WHERE s.id = ?"
	if activeOnly {
		q += " AND s.is_active = 1"
	}
	var l model.Listing
	if err := scanListing(r.db.QueryRowContext(ctx, q, id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// getListingForUpdateTx locks the listing row for the rest of tx.  A missing row
// is returned as nil without error.
func getListingForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Listing, error) {
	var l model.Listing
	err := scanListing(tx.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM spaces s WHERE s.id = ? FOR UPDATE", id), &l)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListingUpdate carries the mutable fields of a listing.  Nil fields are
// left unchanged.
type ListingUpdate struct {
	Name           *string
	Description    *string
	Address        *string
	City           *string
	District       *string
	SpaceType      *string
	Amenities      []string
	ActivityTypes  []string
	PricePerHour   *model.Money
	Capacity       *int
	InstantBooking *bool
}

// Update applies u to listing id when actorID owns it (or isAdmin).  It
// returns sql.ErrNoRows for a missing listing and ErrForbidden for a
// listing owned by someone else.
func (r *ListingRepo) Update(ctx context.Context, id, actorID uint64, isAdmin bool, u ListingUpdate) (*model.Listing, error) {
	if err := r.checkOwner(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) { sets, args = append(sets, col+"=?"), append(args, v) }
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Address != nil {
		add("address", *u.Address)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.District != nil {
		add("district", *u.District)
	}
	if u.SpaceType != nil {
		add("space_type", *u.SpaceType)
	}
	if u.Amenities != nil {
		add("amenities", encodeList(u.Amenities))
	}
	if u.ActivityTypes != nil {
		add("activity_types", encodeList(u.ActivityTypes))
	}
	if u.PricePerHour != nil {
		add("price_per_hour", *u.PricePerHour)
	}
	if u.Capacity != nil {
		add("capacity", *u.Capacity)
	}
	if u.InstantBooking != nil {
		add("instant_booking", *u.InstantBooking)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx, "UPDATE spaces SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id, false)
}

// SoftDelete clears is_active, with the same ownership rules as Update.
func (r *ListingRepo) SoftDelete(ctx context.Context, id, actorID uint64, isAdmin bool) error {
	if err := r.checkOwner(ctx, id, actorID, isAdmin); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE spaces SET is_active = 0 WHERE id = ?", id)
	return err
}

func (r *ListingRepo) checkOwner(ctx context.Context, id, actorID uint64, isAdmin bool) error {
	var hostID uint64
	if err := r.db.QueryRowContext(ctx, "SELECT host_id FROM spaces WHERE id = ?", id).Scan(&hostID); err != nil {
		return err
	}
	if !isAdmin && hostID != actorID {
		return ErrForbidden
	}
	return nil
}

// ListingQuery holds the browse filters.  Zero values mean "no filter".
type ListingQuery struct {
	City           string
	SpaceType      string
	ActivityType   string
	MinPrice       model.Money
	MaxPrice       model.Money
	MinCapacity    int
	InstantBooking bool
	Search         string
	Sort           string // rating (default), priceLow, priceHigh, newest
	Page           int
	Limit          int
	HostID         uint64
}

var listingSorts = map[string]string{
	"rating":    "s.rating_average DESC, s.rating_count DESC, s.id DESC",
	"priceLow":  "s.price_per_hour ASC, s.id ASC",
	"priceHigh": "s.price_per_hour DESC, s.id DESC",
	"newest":    "s.created_at DESC, s.id DESC",
}

// buildListingWhere turns q into a WHERE clause over active listings.
func buildListingWhere(q ListingQuery) (string, []any) {
	where := []string{"s.is_active = 1"}
	var args []any
	if c := strings.TrimSpace(q.City); c != "" {
		where, args = append(where, "s.city LIKE ?"), append(args, "%"+escapeLike(c)+"%")
	}
	if q.SpaceType != "" {
		where, args = append(where, "s.space_type = ?"), append(args, q.SpaceType)
	}
	if q.ActivityType != "" {
		where, args = append(where, "JSON_CONTAINS(s.activity_types, JSON_QUOTE(?))"), append(args, q.ActivityType)
	}
	if q.MinPrice > 0 {
		where, args = append(where, "s.price_per_hour >= ?"), append(args, q.MinPrice)
	}
	if q.MaxPrice > 0 {
		where, args = append(where, "s.price_per_hour <= ?"), append(args, q.MaxPrice)
	}
	if q.MinCapacity > 0 {
		where, args = append(where, "s.capacity >= ?"), append(args, q.MinCapacity)
	}
	if q.InstantBooking {
		where = append(where, "s.instant_booking = 1")
	}
	if q.HostID != 0 {
		where, args = append(where, "s.host_id = ?"), append(args, q.HostID)
	}
	if t := strings.TrimSpace(q.Search); t != "" {
		like := "%" + escapeLike(t) + "%"
		where = append(where, "(s.name LIKE ? OR s.description LIKE ? OR s.address LIKE ?)")
		args = append(args, like, like, like)
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// Search returns a page of active listings matching q and the total count.
func (r *ListingRepo) Search(ctx context.Context, q ListingQuery) ([]model.Listing, int, error) {
	where, args := buildListingWhere(q)
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spaces s"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	order, ok := listingSorts[q.Sort]
	if !ok {
		order = listingSorts["rating"]
	}
	limit, offset := pageBounds(q.Page, q.Limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM spaces s"+where+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectListings(rows)
	return list, total, err
}

// Featured returns the best-rated active listings.
func (r *ListingRepo) Featured(ctx context.Context, limit int) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM spaces s WHERE s.is_active = 1 ORDER BY "+listingSorts["rating"]+" LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]model.Listing, error) {
	defer rows.Close()
	out := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// RecomputeRating rereads every review score of the listing and stores the
// rounded average and count.
func (r *ListingRepo) RecomputeRating(ctx context.Context, spaceID uint64) (model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT rating FROM reviews WHERE space_id = ?", spaceID)
	if err != nil {
		return model.Rating{}, err
	}
	defer rows.Close()
	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return model.Rating{}, err
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return model.Rating{}, err
	}
	rating := model.NewRating(scores)
	_, err = r.db.ExecContext(ctx,
		"UPDATE spaces SET rating_average = ?, rating_count = ? WHERE id = ?",
		rating.Average, rating.Count, spaceID)
	return rating, err
}
