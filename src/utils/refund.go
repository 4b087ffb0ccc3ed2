package utils

import (
	"math"
	"time"

	"tourops/src/models"
	"tourops/src/types"
)

// DaysUntilDeparture counts whole days between now and the departure date.
// Partial days round down, so 6 days and 23 hours out is 6 days.
func DaysUntilDeparture(departure time.Time, now time.Time) int {
	diff := departure.Sub(now)
	if diff < 0 {
		return int(math.Ceil(diff.Hours() / 24))
	}
	return int(diff.Hours() / 24)
}

// RefundPercent maps lead time to the refundable percent of the amount
// paid. The tiers come from the cancellation policy in the terms of
// carriage.
func RefundPercent(daysUntilDeparture int) int {
	switch {
	case daysUntilDeparture >= 15:
		return 80
	case daysUntilDeparture >= 7:
		return 50
	case daysUntilDeparture >= 3:
		return 20
	default:
		return 0
	}
}

// RoundMoney rounds to 2 decimal places, half away from zero.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ComputeRefund quotes a cancellation. Only a paid invoice counts as money
// in; unpaid and already-refunded invoices quote zero all the way through.
func ComputeRefund(invoice *models.Invoice, departure time.Time, now time.Time) *types.RefundQuote {
	days := DaysUntilDeparture(departure, now)
	pct := RefundPercent(days)
	quote := &types.RefundQuote{
		DaysUntilDeparture: days,
		RefundPercent:      pct,
	}
	if invoice == nil || invoice.PaymentStatus != types.INVOICE_PAID {
		return quote
	}
	quote.TotalPaid = invoice.TotalAmount
	quote.RefundAmount = RoundMoney(invoice.TotalAmount * float64(pct) / 100)
	quote.Penalty = RoundMoney(invoice.TotalAmount - quote.RefundAmount)
	return quote
}
