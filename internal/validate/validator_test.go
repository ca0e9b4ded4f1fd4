package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/apperr"
)

func TestPhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"+256700000000", true},
		{"+256 700 000 000", true},
		{"+1 (415) 555-0100", true},
		{"0700000000", false},
		{"256700000000", false},
		{"+0700000000", false},
		{"+12", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Phone(tc.in))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("guest@example.com"))
	assert.False(t, Email("guest@"))
	assert.False(t, Email(""))
}

type contact struct {
	Name  string `json:"guestName" validate:"required"`
	Phone string `json:"guestPhone" validate:"required,phone"`
	Email string `json:"guestEmail" validate:"omitempty,email"`
	Count int    `json:"guests" validate:"gte=1"`
}

func TestStructReportsFirstFailureByJSONName(t *testing.T) {
	err := Struct(contact{Name: "Ann", Phone: "0700000000", Count: 1})
	require.Error(t, err)
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Reason, "guestPhone")
	assert.Contains(t, ve.Reason, "country code")

	err = Struct(contact{Name: "Ann", Phone: "+256700000000", Email: "nope", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guestEmail")

	err = Struct(contact{Name: "Ann", Phone: "+256700000000", Count: 0})
	require.Error(t, err)
	assert.Equal(t, "guests must be at least 1", err.Error())

	assert.NoError(t, Struct(contact{Name: "Ann", Phone: "+256700000000", Count: 2}))
}
