package common

import (
	"math"
	"strings"
)

const (
	// Flat fee for community productions, in currency units.
	nicheFlatFee = 25.0
	// Percentage fee for everything else.
	standardFeeRate = 0.10
	// Floor applied to every computed fee before the price cap.
	minimumFee = 20.0
)

// nicheHasFlatFee reports whether a producer niche qualifies for the
// community flat rate instead of the percentage fee.
func nicheHasFlatFee(niche string) bool {
	switch strings.ToLower(strings.TrimSpace(niche)) {
	case "university", "local":
		return true
	}
	return false
}

// ComputeReservationFee returns the reservation fee in currency units for a
// show priced at price. A positive per-show override wins over the niche
// rules. The result is floored at the minimum fee, then capped at the ticket
// price for priced shows so the fee never exceeds what the ticket costs.
func ComputeReservationFee(price float64, override *float64, niche *string) float64 {
	var fee float64
	switch {
	case override != nil && *override > 0:
		fee = *override
	case niche != nil && nicheHasFlatFee(*niche):
		fee = nicheFlatFee
	default:
		fee = price * standardFeeRate
	}
	fee = math.Max(minimumFee, fee)
	if price > 0 {
		fee = math.Min(fee, price)
	}
	return fee
}

// ToCents converts a currency-unit amount to minor units, rounding half up.
func ToCents(units float64) int64 {
	return int64(math.Floor(units*100 + 0.5))
}

// ReservationFeeCents computes the fee and converts it to minor units in one
// step. Provider line items and Payment.Amount are always stored in cents.
func ReservationFeeCents(price float64, override *float64, niche *string) int64 {
	return ToCents(ComputeReservationFee(price, override, niche))
}
