package booking

import (
	"math"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
)

// ServiceFeePercent is the platform fee charged on top of the subtotal.
const ServiceFeePercent = 10

// maxSubtotal is the largest subtotal whose fee arithmetic fits in int64.
const maxSubtotal = (math.MaxInt64 - 50) / ServiceFeePercent

// Price is the breakdown stored on a reservation.
type Price struct {
	Subtotal   model.Money
	ServiceFee model.Money
	Total      model.Money
}

// Quote prices hours at the listing's hourly rate. The fee is computed in
// integer minor units and rounded half-up. Amounts too large for int64 are
// rejected with a ValidationError.
func Quote(rate model.Money, hours int64) (Price, error) {
	if rate <= 0 || hours <= 0 {
		return Price{}, nil
	}
	if int64(rate) > maxSubtotal/hours {
		return Price{}, apperr.Validation("booking total exceeds the supported amount")
	}
	subtotal := rate * model.Money(hours)
	fee := (subtotal*ServiceFeePercent + 50) / 100
	return Price{Subtotal: subtotal, ServiceFee: fee, Total: subtotal + fee}, nil
}
