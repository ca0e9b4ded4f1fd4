// Package queue defines reservation events and the brokers that carry them.
package queue

import "time"

// Event types published by the booking engine.
const (
	EventReservationAdmitted      = "reservation.admitted"
	EventReservationStatusChanged = "reservation.status_changed"
)

// ReservationEvent is published after a reservation is created or changes
// status. It carries enough context for audit logging without a database
// lookup.
type ReservationEvent struct {
	Type           string    `json:"type"`
	ReservationID  uint64    `json:"reservation_id"`
	Reference      string    `json:"reference"`
	SpaceID        uint64    `json:"space_id"`
	AccountID      uint64    `json:"account_id,omitempty"`
	ActorID        uint64    `json:"actor_id,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	StartsAt       string    `json:"starts_at"`
	EndsAt         string    `json:"ends_at"`
	TotalPrice     int64     `json:"total_price"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
