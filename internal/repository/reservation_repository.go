package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/model"
)

// ReservationRepo is the MySQL booking.Store.  Admissions lock the listing
// row with SELECT ... FOR UPDATE before running the overlap query, so two
// transactions for the same space run one after the other while different
// spaces proceed in parallel.  All instants are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

var _ booking.Store = (*ReservationRepo)(nil)

const reservationColumns = `r.id, r.reference, r.space_id, r.requester_kind, r.account_id,
	r.contact_name, r.contact_phone, r.contact_email, r.start_at, r.end_at, r.start_time, r.end_time,
	r.guests, r.subtotal, r.service_fee, r.total_price, r.status, r.payment_status, r.payment_method,
	r.special_requests, r.cancellation_reason, r.cancelled_at, r.created_at, r.updated_at`

// reservationDetailColumns adds the joined listing and account summaries.
const reservationDetailColumns = reservationColumns + `,
	s.host_id, s.name, s.city, s.address, s.price_per_hour,
	a.name, a.email`

const reservationDetailFrom = ` FROM reservations r
	JOIN spaces s ON s.id = r.space_id
	LEFT JOIN accounts a ON a.id = r.account_id`

func scanReservation(row rowScanner, res *model.Reservation, extra ...any) error {
	var (
		accountID   sql.NullInt64
		cancelledAt sql.NullTime
	)
	dest := []any{
		&res.ID, &res.Reference, &res.SpaceID, &res.Requester.Kind, &accountID,
		&res.Requester.Name, &res.Requester.Phone, &res.Requester.Email,
		&res.StartAt, &res.EndAt, &res.StartTime, &res.EndTime,
		&res.Guests, &res.Subtotal, &res.ServiceFee, &res.TotalPrice,
		&res.Status, &res.PaymentStatus, &res.PaymentMethod,
		&res.SpecialRequests, &res.CancellationReason, &cancelledAt, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if accountID.Valid {
		res.Requester.AccountID = uint64(accountID.Int64)
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	return nil
}

func scanReservationDetail(row rowScanner, res *model.Reservation) error {
	var (
		sp       model.ListingSummary
		accName  sql.NullString
		accEmail sql.NullString
	)
	if err := scanReservation(row, res,
		&sp.HostID, &sp.Name, &sp.City, &sp.Address, &sp.PricePerHour,
		&accName, &accEmail); err != nil {
		return err
	}
	sp.ID = res.SpaceID
	res.Space = &sp
	if res.Requester.AccountID != 0 && accName.Valid {
		res.Account = &model.AccountSummary{ID: res.Requester.AccountID, Name: accName.String, Email: accEmail.String}
	}
	return nil
}

// InSpaceTx implements booking.Store.  READ COMMITTED is enough because the
// listing row lock serialises every writer of the space's reservations and
// each statement reads the latest committed rows.
func (r *ReservationRepo) InSpaceTx(ctx context.Context, spaceID uint64, fn func(tx booking.Tx, listing *model.Listing) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	listing, err := getListingForUpdateTx(ctx, tx, spaceID)
	if err != nil {
		return err
	}
	if err := fn(&reservationTx{tx: tx}, listing); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// InReservationTx implements booking.Store.  It locks the listing first and
// the reservation second, the same order admissions use, so the two paths
// cannot deadlock on each other.
func (r *ReservationRepo) InReservationTx(ctx context.Context, id uint64, fn func(tx booking.Tx, res *model.Reservation, listing *model.Listing) error) error {
	var spaceID uint64
	err := r.db.QueryRowContext(ctx, "SELECT space_id FROM reservations WHERE id = ?", id).Scan(&spaceID)
	if err == sql.ErrNoRows {
		return fn(nopTx{}, nil, nil)
	}
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	listing, err := getListingForUpdateTx(ctx, tx, spaceID)
	if err != nil {
		return err
	}
	var res model.Reservation
	err = scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations r WHERE r.id = ? FOR UPDATE", id), &res)
	var current *model.Reservation
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	default:
		current = &res
	}
	if err := fn(&reservationTx{tx: tx}, current, listing); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetReservation implements booking.Store.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, *model.Listing, error) {
	var res model.Reservation
	err := scanReservationDetail(r.db.QueryRowContext(ctx,
		"SELECT "+reservationDetailColumns+reservationDetailFrom+" WHERE r.id = ?", id), &res)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	listing := &model.Listing{
		ID:           res.Space.ID,
		HostID:       res.Space.HostID,
		Name:         res.Space.Name,
		City:         res.Space.City,
		Address:      res.Space.Address,
		PricePerHour: res.Space.PricePerHour,
	}
	return &res, listing, nil
}

// buildReservationWhere turns f into a WHERE clause.
func buildReservationWhere(f booking.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != 0 {
		where, args = append(where, "r.requester_kind = 'registered' AND r.account_id = ?"), append(args, f.AccountID)
	}
	if f.HostID != 0 {
		where, args = append(where, "s.host_id = ?"), append(args, f.HostID)
	}
	if f.SpaceID != 0 {
		where, args = append(where, "r.space_id = ?"), append(args, f.SpaceID)
	}
	if f.Status != "" {
		where, args = append(where, "r.status = ?"), append(args, f.Status)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListReservations implements booking.Store.
func (r *ReservationRepo) ListReservations(ctx context.Context, f booking.ListFilter) ([]model.Reservation, error) {
	where, args := buildReservationWhere(f)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reservationDetailColumns+reservationDetailFrom+where+" ORDER BY r.created_at DESC, r.id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		var res model.Reservation
		if err := scanReservationDetail(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListCompletable implements booking.Store.
func (r *ReservationRepo) ListCompletable(ctx context.Context, before time.Time) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM reservations WHERE status = ? AND end_at < ? ORDER BY id",
		model.StatusConfirmed, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ForReview loads the fields the review and messaging subsystems authorise
// against: requester, status and the listing's host.  Missing reservations
// yield sql.ErrNoRows.
func (r *ReservationRepo) ForReview(ctx context.Context, id uint64) (*model.Reservation, uint64, error) {
	var res model.Reservation
	var hostID uint64
	err := scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+", s.host_id FROM reservations r JOIN spaces s ON s.id = r.space_id WHERE r.id = ?", id),
		&res, &hostID)
	if err != nil {
		return nil, 0, err
	}
	return &res, hostID, nil
}

// reservationTx is the booking.Tx bound to an open *sql.Tx.
type reservationTx struct{ tx *sql.Tx }

func (t *reservationTx) FindOverlapping(ctx context.Context, spaceID uint64, start, end time.Time, statuses []model.ReservationStatus) (*model.Reservation, error) {
	args := []any{spaceID, end.UTC(), start.UTC()}
	for _, s := range statuses {
		args = append(args, s)
	}
	q := "SELECT " + reservationColumns + ` FROM reservations r
		WHERE r.space_id = ? AND r.start_at <= ? AND r.end_at >= ?
		  AND r.status IN (` + placeholders(len(statuses)) + `)
		ORDER BY r.id LIMIT 1`
	var res model.Reservation
	err := scanReservation(t.tx.QueryRowContext(ctx, q, args...), &res)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (t *reservationTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	var accountID any
	if res.Requester.Kind == model.RequesterRegistered {
		accountID = res.Requester.AccountID
	}
	const q = `INSERT INTO reservations (reference, space_id, requester_kind, account_id,
		contact_name, contact_phone, contact_email, start_at, end_at, start_time, end_time,
		guests, subtotal, service_fee, total_price, status, payment_status, payment_method,
		special_requests, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	result, err := t.tx.ExecContext(ctx, q,
		res.Reference, res.SpaceID, res.Requester.Kind, accountID,
		res.Requester.Name, res.Requester.Phone, res.Requester.Email,
		res.StartAt.UTC(), res.EndAt.UTC(), res.StartTime, res.EndTime,
		res.Guests, res.Subtotal, res.ServiceFee, res.TotalPrice,
		res.Status, res.PaymentStatus, res.PaymentMethod,
		res.SpecialRequests, res.CreatedAt.UTC(), res.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

func (t *reservationTx) UpdateReservationStatus(ctx context.Context, res *model.Reservation) error {
	var cancelledAt any
	if res.CancelledAt != nil {
		cancelledAt = res.CancelledAt.UTC()
	}
	_, err := t.tx.ExecContext(ctx, `UPDATE reservations
		SET status = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ?`,
		res.Status, res.CancellationReason, cancelledAt, res.UpdatedAt.UTC(), res.ID)
	return err
}

// nopTx is handed to callbacks when the reservation does not exist; the
// engine returns NotFound before touching it.
type nopTx struct{}

func (nopTx) FindOverlapping(context.Context, uint64, time.Time, time.Time, []model.ReservationStatus) (*model.Reservation, error) {
	return nil, nil
}
func (nopTx) InsertReservation(context.Context, *model.Reservation) error       { return sql.ErrTxDone }
func (nopTx) UpdateReservationStatus(context.Context, *model.Reservation) error { return sql.ErrTxDone }
