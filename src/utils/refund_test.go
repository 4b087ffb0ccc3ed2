package utils

import (
	"testing"
	"time"

	"tourops/src/models"
	"tourops/src/types"

	"github.com/stretchr/testify/assert"
)

func TestRefundPercentTiers(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{30, 80},
		{15, 80},
		{14, 50},
		{7, 50},
		{6, 20},
		{3, 20},
		{2, 0},
		{1, 0},
		{0, 0},
		{-1, 0},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, RefundPercent(c.days), "days=%d", c.days)
	}
}

func TestRefundPercentMonotonic(t *testing.T) {
	prev := 0
	for days := -5; days <= 40; days++ {
		pct := RefundPercent(days)
		assert.GreaterOrEqualf(t, pct, prev, "percent dropped at %d days", days)
		prev = pct
	}
}

func TestDaysUntilDeparture(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 7, DaysUntilDeparture(now.AddDate(0, 0, 7), now))
	// Partial days round down.
	assert.Equal(t, 6, DaysUntilDeparture(now.Add(6*24*time.Hour+23*time.Hour), now))
	assert.Equal(t, 0, DaysUntilDeparture(now.Add(12*time.Hour), now))
}

func TestComputeRefundPaidInvoice(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{
		TotalAmount:   500,
		PaymentStatus: types.INVOICE_PAID,
	}

	quote := ComputeRefund(invoice, now.AddDate(0, 0, 20), now)
	assert.Equal(t, 20, quote.DaysUntilDeparture)
	assert.Equal(t, 80, quote.RefundPercent)
	assert.Equal(t, 500.0, quote.TotalPaid)
	assert.Equal(t, 400.0, quote.RefundAmount)
	assert.Equal(t, 100.0, quote.Penalty)
}

func TestComputeRefundLastMinute(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{
		TotalAmount:   500,
		PaymentStatus: types.INVOICE_PAID,
	}

	quote := ComputeRefund(invoice, now.AddDate(0, 0, 1), now)
	assert.Equal(t, 0, quote.RefundPercent)
	assert.Equal(t, 0.0, quote.RefundAmount)
	assert.Equal(t, 500.0, quote.Penalty)
}

func TestComputeRefundUnpaidInvoice(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{
		TotalAmount:   500,
		PaymentStatus: types.INVOICE_UNPAID,
	}

	quote := ComputeRefund(invoice, now.AddDate(0, 0, 20), now)
	assert.Equal(t, 80, quote.RefundPercent)
	assert.Equal(t, 0.0, quote.TotalPaid)
	assert.Equal(t, 0.0, quote.RefundAmount)
	assert.Equal(t, 0.0, quote.Penalty)
}

func TestComputeRefundNilInvoice(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	quote := ComputeRefund(nil, now.AddDate(0, 0, 10), now)
	assert.Equal(t, 0.0, quote.RefundAmount)
}

func TestRoundMoneyHalfUp(t *testing.T) {
	assert.Equal(t, 0.13, RoundMoney(0.125))
	assert.Equal(t, 12.35, RoundMoney(12.345000001))
	assert.Equal(t, 100.0, RoundMoney(100.0))
}

func TestRefundAmountRounding(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{
		TotalAmount:   333.5,
		PaymentStatus: types.INVOICE_PAID,
	}

	quote := ComputeRefund(invoice, now.AddDate(0, 0, 10), now)
	assert.Equal(t, 50, quote.RefundPercent)
	assert.Equal(t, 166.75, quote.RefundAmount)
	assert.Equal(t, 166.75, quote.Penalty)
}
