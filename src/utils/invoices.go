package utils

import (
	"errors"
	"log"

	"tourops/src/db"
	"tourops/src/models"
	"tourops/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func GetInvoice(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	db := db.GetDb()
	if err := db.
		Model(&models.Invoice{}).
		Where(&models.Invoice{ID: id}).
		Preload("Booking.Trip").
		First(&invoice).
		Error; err != nil {
		return nil, types.NewAppError(types.ErrNotFound, "invoice %d does not exist", id)
	}
	return &invoice, nil
}

func GetInvoiceForBooking(bookingId uint) (*models.Invoice, error) {
	var invoice models.Invoice
	db := db.GetDb()
	if err := db.
		Where(&models.Invoice{BookingID: bookingId}).
		First(&invoice).
		Error; err != nil {
		return nil, types.NewAppError(types.ErrNotFound, "booking %d has no invoice", bookingId)
	}
	return &invoice, nil
}

func lockInvoiceByOrderRef(tx *gorm.DB, orderRef string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := tx.
		Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		}).
		Where(&models.Invoice{OrderRef: &orderRef}).
		First(&invoice).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAppError(types.ErrNotFound, "no invoice for order %s", orderRef)
		}
		return nil, err
	}
	return &invoice, nil
}

// markInvoicePaidTx settles an invoice and confirms its booking in the
// same transaction. Payment confirmation is the only path from pending to
// confirmed.
func markInvoicePaidTx(tx *gorm.DB, invoice *models.Invoice, method string) error {
	if !types.CanTransitionInvoice(invoice.PaymentStatus, types.INVOICE_PAID) {
		return types.NewAppError(types.ErrIneligibleState, "invoice %d is %s and cannot be marked paid", invoice.ID, invoice.PaymentStatus)
	}
	if err := tx.
		Model(&models.Invoice{}).
		Where(&models.Invoice{ID: invoice.ID}).
		Updates(map[string]any{
			"payment_status": types.INVOICE_PAID,
			"payment_method": method,
		}).Error; err != nil {
		return err
	}
	var booking models.Booking
	if err := tx.
		Where(&models.Booking{ID: invoice.BookingID}).
		First(&booking).
		Error; err != nil {
		return err
	}
	if !types.CanTransitionBooking(booking.Status, types.BOOKING_CONFIRMED) {
		return types.NewAppError(types.ErrIneligibleState, "booking %d is %s and cannot be confirmed", booking.ID, booking.Status)
	}
	if err := tx.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: booking.ID}).
		Updates(map[string]any{
			"status":  types.BOOKING_CONFIRMED,
			"version": booking.Version + 1,
		}).Error; err != nil {
		return err
	}
	return nil
}

// MarkInvoicePaid is the manual settlement path for counter payments;
// webhook settlement goes through ApplyPaymentOutcome.
func MarkInvoicePaid(invoiceId uint, method string) error {
	var bookingId uint
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: clause.CurrentTable},
			}).
			Where(&models.Invoice{ID: invoiceId}).
			First(&invoice).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAppError(types.ErrNotFound, "invoice %d does not exist", invoiceId)
			}
			return err
		}
		bookingId = invoice.BookingID
		return markInvoicePaidTx(tx, &invoice, method)
	})
	if err != nil {
		log.Printf("[invoices] MarkInvoicePaid %d failed: %s\n", invoiceId, err.Error())
		return err
	}
	notifyBookingEvent("booking-paid", bookingId, 0)
	return nil
}
