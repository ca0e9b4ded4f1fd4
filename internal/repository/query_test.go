package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/model"
)

func TestPageBounds(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantLimit, wantOffs int
	}{
		{0, 0, defaultPageSize, 0},
		{1, 12, 12, 0},
		{3, 10, 10, 20},
		{2, 1000, maxPageSize, maxPageSize},
		{-4, 5, 5, 0},
	}
	for _, tc := range cases {
		l, o := pageBounds(tc.page, tc.limit)
		assert.Equal(t, tc.wantLimit, l, "limit for page=%d limit=%d", tc.page, tc.limit)
		assert.Equal(t, tc.wantOffs, o, "offset for page=%d limit=%d", tc.page, tc.limit)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func TestBuildListingWhere(t *testing.T) {
	where, args := buildListingWhere(ListingQuery{})
	assert.Equal(t, " WHERE s.is_active = 1", where)
	assert.Empty(t, args)

	where, args = buildListingWhere(ListingQuery{
		City:           "Kampala",
		SpaceType:      "rooftop",
		MinPrice:       1000,
		MaxPrice:       90000,
		MinCapacity:    10,
		InstantBooking: true,
		Search:         "view",
	})
	assert.True(t, strings.HasPrefix(where, " WHERE s.is_active = 1 AND s.city LIKE ?"), where)
	assert.Contains(t, where, "s.instant_booking = 1")
	assert.Contains(t, where, "(s.name LIKE ? OR s.description LIKE ? OR s.address LIKE ?)")
	assert.Equal(t, []any{"%Kampala%", "rooftop", model.Money(1000), model.Money(90000), 10, "%view%", "%view%", "%view%"}, args)
}

func TestBuildReservationWhere(t *testing.T) {
	where, args := buildReservationWhere(booking.ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildReservationWhere(booking.ListFilter{HostID: 3, SpaceID: 9, Status: model.StatusPending})
	assert.Equal(t, " WHERE s.host_id = ? AND r.space_id = ? AND r.status = ?", where)
	assert.Equal(t, []any{uint64(3), uint64(9), model.StatusPending}, args)

	where, _ = buildReservationWhere(booking.ListFilter{AccountID: 5})
	assert.Contains(t, where, "r.requester_kind = 'registered'")
}
