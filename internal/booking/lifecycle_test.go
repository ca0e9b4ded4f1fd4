package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/spacehire/internal/model"
)

func TestCanTransition(t *testing.T) {
	all := []model.ReservationStatus{
		model.StatusPending, model.StatusConfirmed, model.StatusDeclined,
		model.StatusCancelled, model.StatusCompleted,
	}
	allowed := map[[2]model.ReservationStatus]bool{
		{model.StatusPending, model.StatusConfirmed}:   true,
		{model.StatusPending, model.StatusDeclined}:    true,
		{model.StatusPending, model.StatusCancelled}:   true,
		{model.StatusConfirmed, model.StatusCancelled}: true,
		{model.StatusConfirmed, model.StatusCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]model.ReservationStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(model.StatusPending))
	assert.False(t, IsTerminal(model.StatusConfirmed))
	assert.True(t, IsTerminal(model.StatusDeclined))
	assert.True(t, IsTerminal(model.StatusCancelled))
	assert.True(t, IsTerminal(model.StatusCompleted))
	assert.True(t, IsTerminal("archived"))
}

func TestHostSettable(t *testing.T) {
	assert.True(t, HostSettable(model.StatusConfirmed))
	assert.True(t, HostSettable(model.StatusDeclined))
	assert.True(t, HostSettable(model.StatusCancelled))
	assert.False(t, HostSettable(model.StatusCompleted))
	assert.False(t, HostSettable(model.StatusPending))
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 6, 1, h, 0, 0, 0, time.UTC) }
	cases := []struct {
		name       string
		s, e       time.Time
		start, end time.Time
		want       bool
	}{
		{"disjoint before", at(8), at(9), at(10), at(12), false},
		{"disjoint after", at(13), at(14), at(10), at(12), false},
		{"contained", at(10), at(11), at(9), at(12), true},
		{"containing", at(9), at(13), at(10), at(12), true},
		{"partial left", at(9), at(11), at(10), at(12), true},
		{"touching end", at(8), at(10), at(10), at(12), true},
		{"touching start", at(12), at(14), at(10), at(12), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.s, tc.e, tc.start, tc.end))
		})
	}
}

func TestIsOccupying(t *testing.T) {
	assert.True(t, IsOccupying(model.StatusPending))
	assert.True(t, IsOccupying(model.StatusConfirmed))
	assert.False(t, IsOccupying(model.StatusDeclined))
	assert.False(t, IsOccupying(model.StatusCancelled))
	assert.False(t, IsOccupying(model.StatusCompleted))
}
