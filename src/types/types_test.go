package types

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		BOOKING_PENDING:   {BOOKING_CONFIRMED, BOOKING_CANCELED},
		BOOKING_CONFIRMED: {BOOKING_COMPLETED, BOOKING_CANCELED},
		BOOKING_COMPLETED: {},
		BOOKING_CANCELED:  {},
	}
	all := []BookingStatus{BOOKING_PENDING, BOOKING_CONFIRMED, BOOKING_COMPLETED, BOOKING_CANCELED}
	for from, targets := range allowed {
		ok := map[BookingStatus]bool{}
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equalf(t, ok[to], CanTransitionBooking(from, to), "%s -> %s", from, to)
		}
	}
}

func TestInvoiceTransitions(t *testing.T) {
	assert.True(t, CanTransitionInvoice(INVOICE_UNPAID, INVOICE_PAID))
	assert.True(t, CanTransitionInvoice(INVOICE_PAID, INVOICE_REFUNDED))

	assert.False(t, CanTransitionInvoice(INVOICE_UNPAID, INVOICE_REFUNDED))
	assert.False(t, CanTransitionInvoice(INVOICE_PAID, INVOICE_UNPAID))
	assert.False(t, CanTransitionInvoice(INVOICE_REFUNDED, INVOICE_PAID))
	assert.False(t, CanTransitionInvoice(INVOICE_REFUNDED, INVOICE_UNPAID))
}

func TestAppErrorKind(t *testing.T) {
	err := NewAppError(ErrCapacityExceeded, "only %d seats left", 2)
	assert.Equal(t, ErrCapacityExceeded, KindOf(err))
	assert.Equal(t, "only 2 seats left", err.Error())

	wrapped := fmt.Errorf("while booking: %w", err)
	assert.Equal(t, ErrCapacityExceeded, KindOf(wrapped))

	assert.Equal(t, ErrorKind(""), KindOf(fmt.Errorf("plain")))
}

func TestHTTPStatusForError(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrCapacityExceeded, http.StatusConflict},
		{ErrIneligibleState, http.StatusUnprocessableEntity},
		{ErrConcurrencyConflict, http.StatusConflict},
		{ErrExternalGateway, http.StatusBadGateway},
	}
	for _, c := range cases {
		err := NewAppError(c.kind, "boom")
		assert.Equalf(t, c.want, HTTPStatusForError(err), "kind=%s", c.kind)
	}
	assert.Equal(t, http.StatusBadRequest, HTTPStatusForError(fmt.Errorf("plain")))
}
