package model

import (
	"math"
	"time"
)

// Money is an amount in the currency's minor unit. Prices never use floats.
type Money int64

// Listing is a bookable space owned by a host account. Listings are
// soft-deleted through IsActive and never removed while reservations
// reference them.
type Listing struct {
	ID             uint64    `json:"id"`
	HostID         uint64    `json:"hostId"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	District       string    `json:"district,omitempty"`
	SpaceType      string    `json:"spaceType"`
	Amenities      []string  `json:"amenities"`
	ActivityTypes  []string  `json:"activityTypes"`
	PricePerHour   Money     `json:"pricePerHour"`
	Capacity       int       `json:"capacity"`
	InstantBooking bool      `json:"instantBooking"`
	IsActive       bool      `json:"isActive"`
	Rating         Rating    `json:"rating"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListingSummary is the projection embedded in reservation responses.
type ListingSummary struct {
	ID           uint64 `json:"id"`
	HostID       uint64 `json:"hostId"`
	Name         string `json:"name"`
	City         string `json:"city"`
	Address      string `json:"address"`
	PricePerHour Money  `json:"pricePerHour"`
}

// Summary projects the listing for embedding.
func (l Listing) Summary() *ListingSummary {
	return &ListingSummary{ID: l.ID, HostID: l.HostID, Name: l.Name, City: l.City, Address: l.Address, PricePerHour: l.PricePerHour}
}

// Rating is the aggregate of all reviews of a listing.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// NewRating averages the given review scores, rounded to one decimal.
func NewRating(scores []int) Rating {
	if len(scores) == 0 {
		return Rating{}
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))
	return Rating{Average: math.Round(avg*10) / 10, Count: len(scores)}
}
