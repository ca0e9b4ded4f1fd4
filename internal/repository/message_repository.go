package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/spacehire/internal/model"
)

// MessageRepo stores direct messages between accounts.
type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageSelect = `SELECT m.id, m.reservation_id, m.sender_id, m.recipient_id, m.content, m.is_read,
	       m.read_at, m.created_at, se.name, se.email, re.name, re.email
	FROM messages m
	JOIN accounts se ON se.id = m.sender_id
	JOIN accounts re ON re.id = m.recipient_id`

func scanMessage(row rowScanner, m *model.Message) error {
	var (
		reservationID sql.NullInt64
		readAt        sql.NullTime
		sender        model.AccountSummary
		recipient     model.AccountSummary
	)
	if err := row.Scan(&m.ID, &reservationID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead,
		&readAt, &m.CreatedAt, &sender.Name, &sender.Email, &recipient.Name, &recipient.Email); err != nil {
		return err
	}
	if reservationID.Valid {
		id := uint64(reservationID.Int64)
		m.ReservationID = &id
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	sender.ID, recipient.ID = m.SenderID, m.RecipientID
	m.Sender, m.Recipient = &sender, &recipient
	return nil
}

// Create inserts m and returns the stored row with both participants.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) (*model.Message, error) {
	var reservationID any
	if m.ReservationID != nil {
		reservationID = *m.ReservationID
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (reservation_id, sender_id, recipient_id, content) VALUES (?,?,?,?)",
		reservationID, m.SenderID, m.RecipientID, m.Content)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID loads one message or returns sql.ErrNoRows.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (*model.Message, error) {
	var m model.Message
	if err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+" WHERE m.id = ?", id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MessageFilter selects a conversation.  ReservationID lists the messages of
// one reservation; PeerID lists the direct conversation between AccountID
// and PeerID; with neither set every message of AccountID is returned.
type MessageFilter struct {
	AccountID     uint64
	ReservationID uint64
	PeerID        uint64
}

// List returns the conversation selected by f, oldest first.
func (r *MessageRepo) List(ctx context.Context, f MessageFilter) ([]model.Message, error) {
	var (
		where []string
		args  []any
	)
	switch {
	case f.ReservationID != 0:
		where, args = append(where, "m.reservation_id = ?"), append(args, f.ReservationID)
	case f.PeerID != 0:
		where = append(where, "((m.sender_id = ? AND m.recipient_id = ?) OR (m.sender_id = ? AND m.recipient_id = ?))")
		args = append(args, f.AccountID, f.PeerID, f.PeerID, f.AccountID)
	default:
		where, args = append(where, "(m.sender_id = ? OR m.recipient_id = ?)"), append(args, f.AccountID, f.AccountID)
	}
	rows, err := r.db.QueryContext(ctx,
		messageSelect+" WHERE "+strings.Join(where, " AND ")+" ORDER BY m.created_at ASC, m.id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flags the message as read when accountID is its recipient.  It
// returns sql.ErrNoRows for a missing message and ErrForbidden for anyone
// but the recipient.
func (r *MessageRepo) MarkRead(ctx context.Context, id, accountID uint64) (*model.Message, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.RecipientID != accountID {
		return nil, ErrForbidden
	}
	if !m.IsRead {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE messages SET is_read = 1, read_at = UTC_TIMESTAMP(3) WHERE id = ?", id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}
