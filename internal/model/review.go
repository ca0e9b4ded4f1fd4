package model

import "time"

// ReviewCategories holds the optional 1-5 sub-scores of a review.
type ReviewCategories struct {
	Cleanliness   *int `json:"cleanliness,omitempty" validate:"omitempty,gte=1,lte=5"`
	Communication *int `json:"communication,omitempty" validate:"omitempty,gte=1,lte=5"`
	Value         *int `json:"value,omitempty" validate:"omitempty,gte=1,lte=5"`
	Location      *int `json:"location,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// Review is a guest's rating of a completed reservation. There is at most
// one review per reservation.
type Review struct {
	ID            uint64           `json:"id"`
	ReservationID uint64           `json:"bookingId"`
	SpaceID       uint64           `json:"spaceId"`
	GuestID       uint64           `json:"guestId"`
	HostID        uint64           `json:"hostId"`
	Rating        int              `json:"rating"`
	Comment       string           `json:"comment,omitempty"`
	Categories    ReviewCategories `json:"categories"`
	GuestName     string           `json:"guestName,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Message is a direct message between two accounts, optionally attached to
// a reservation.
type Message struct {
	ID            uint64          `json:"id"`
	ReservationID *uint64         `json:"bookingId,omitempty"`
	SenderID      uint64          `json:"senderId"`
	RecipientID   uint64          `json:"recipientId"`
	Content       string          `json:"content"`
	IsRead        bool            `json:"isRead"`
	ReadAt        *time.Time      `json:"readAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Sender        *AccountSummary `json:"sender,omitempty"`
	Recipient     *AccountSummary `json:"recipient,omitempty"`
}
