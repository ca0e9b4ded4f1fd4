package booking

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
)

func TestQuote(t *testing.T) {
	cases := []struct {
		name  string
		rate  model.Money
		hours int64
		want  Price
	}{
		{"three days", 50000, 72, Price{Subtotal: 3600000, ServiceFee: 360000, Total: 3960000}},
		{"one hour", 25000, 1, Price{Subtotal: 25000, ServiceFee: 2500, Total: 27500}},
		{"fee rounds half up", 5, 1, Price{Subtotal: 5, ServiceFee: 1, Total: 6}},
		{"fee rounds down", 14, 1, Price{Subtotal: 14, ServiceFee: 1, Total: 15}},
		{"zero hours", 50000, 0, Price{}},
		{"negative rate", -1, 3, Price{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Quote(tc.rate, tc.hours)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got.Subtotal+got.ServiceFee, got.Total)
		})
	}
}

func TestQuoteRejectsOverflow(t *testing.T) {
	hours := int64(MaxBookingDays * 24)
	for _, rate := range []model.Money{model.Money(math.MaxInt64 / 2), model.Money(maxSubtotal/hours + 1)} {
		_, err := Quote(rate, hours)
		var verr *apperr.ValidationError
		require.True(t, errors.As(err, &verr), "rate %d: want ValidationError, got %v", rate, err)
	}

	got, err := Quote(model.Money(maxSubtotal/hours), hours)
	require.NoError(t, err)
	assert.Positive(t, int64(got.Total))
	assert.Equal(t, got.Subtotal+got.ServiceFee, got.Total)
}
