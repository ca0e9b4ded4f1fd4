package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusDeclined  ReservationStatus = "declined"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus tracks payment outside of this service. It is only stored.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is the method the guest intends to pay with.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentCard        PaymentMethod = "card"
)

// RequesterKind tags the Requester variant.
type RequesterKind string

const (
	RequesterRegistered RequesterKind = "registered"
	RequesterAnonymous  RequesterKind = "anonymous"
)

// Requester identifies who asked for a reservation. A registered requester
// references an account; an anonymous one is only a contact bundle. Name and
// Phone are always present because admission requires them from both kinds.
type Requester struct {
	Kind      RequesterKind `json:"kind"`
	AccountID uint64        `json:"accountId,omitempty"`
	Name      string        `json:"name"`
	Phone     string        `json:"phone"`
	Email     string        `json:"email,omitempty"`
}

// RegisteredRequester builds the variant for an authenticated caller.
func RegisteredRequester(accountID uint64, name, phone, email string) Requester {
	return Requester{Kind: RequesterRegistered, AccountID: accountID, Name: name, Phone: phone, Email: email}
}

// AnonymousRequester builds the contact-only variant.
func AnonymousRequester(name, phone, email string) Requester {
	return Requester{Kind: RequesterAnonymous, Name: name, Phone: phone, Email: email}
}

// IsAccount reports whether the requester is the given registered account.
func (r Requester) IsAccount(accountID uint64) bool {
	return r.Kind == RequesterRegistered && accountID != 0 && r.AccountID == accountID
}

// Reservation is a booking of a listing for the half-open interval
// [StartAt, EndAt). StartTime/EndTime keep the time-of-day strings the guest
// sent and are empty for multi-day bookings.
type Reservation struct {
	ID                 uint64            `json:"id"`
	Reference          string            `json:"reference"`
	SpaceID            uint64            `json:"spaceId"`
	Requester          Requester         `json:"requester"`
	StartAt            time.Time         `json:"startDate"`
	EndAt              time.Time         `json:"endDate"`
	StartTime          string            `json:"startTime,omitempty"`
	EndTime            string            `json:"endTime,omitempty"`
	Guests             int               `json:"guests"`
	Subtotal           Money             `json:"subtotal"`
	ServiceFee         Money             `json:"serviceFee"`
	TotalPrice         Money             `json:"totalPrice"`
	Status             ReservationStatus `json:"status"`
	PaymentStatus      PaymentStatus     `json:"paymentStatus"`
	PaymentMethod      PaymentMethod     `json:"paymentMethod"`
	SpecialRequests    string            `json:"specialRequests,omitempty"`
	CancellationReason string            `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time        `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`

	// Populated by read queries that join the listing and account tables.
	Space   *ListingSummary `json:"space,omitempty"`
	Account *AccountSummary `json:"guest,omitempty"`
}
