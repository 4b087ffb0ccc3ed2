package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"time"

	"tourops/src/db"
	"tourops/src/lib"
	awslib "tourops/src/lib/aws"
	"tourops/src/models"
	"tourops/src/types"

	"github.com/google/uuid"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func checkoutHandleKey(orderRef string) string {
	return fmt.Sprintf("checkout:%s:handle", orderRef)
}

// CreateCheckoutForBooking mints an order ref, asks the gateway for a
// hosted checkout link and renders the same link as a QR code for the
// counter. The QR upload is best effort; the link alone is enough to pay.
func CreateCheckoutForBooking(bookingId uint, buyerName string, buyerEmail string) (*types.CheckoutHandle, error) {
	booking, err := GetBooking(bookingId)
	if err != nil {
		return nil, err
	}
	if booking.Status != types.BOOKING_PENDING {
		return nil, types.NewAppError(types.ErrIneligibleState, "booking %d is %s, nothing to pay", bookingId, booking.Status)
	}
	invoice := booking.Invoice
	if invoice == nil {
		return nil, types.NewAppError(types.ErrNotFound, "booking %d has no invoice", bookingId)
	}
	if invoice.PaymentStatus != types.INVOICE_UNPAID {
		return nil, types.NewAppError(types.ErrIneligibleState, "invoice %d is already %s", invoice.ID, invoice.PaymentStatus)
	}
	orderRef := uuid.NewString()
	gw := lib.GetPaymentGateway()
	link, err := gw.CreateLink(context.Background(), &lib.PaymentLinkInput{
		Amount:      invoice.TotalAmount,
		Currency:    "usd",
		OrderRef:    orderRef,
		Description: fmt.Sprintf("Trip booking #%d", booking.ID),
		BuyerName:   buyerName,
		BuyerEmail:  buyerEmail,
	})
	if err != nil {
		return nil, err
	}
	db := db.GetDb()
	if err := db.
		Model(&models.Invoice{}).
		Where(&models.Invoice{ID: invoice.ID}).
		Update("order_ref", orderRef).
		Error; err != nil {
		return nil, err
	}
	handle := &types.CheckoutHandle{
		OrderRef:    orderRef,
		CheckoutURL: link.CheckoutURL,
	}
	if qrURL, err := renderCheckoutQR(orderRef, link.CheckoutURL); err == nil {
		handle.QRCodeURL = *qrURL
	} else {
		log.Printf("[payments] QR render failed for order %s: %s\n", orderRef, err.Error())
	}
	rd := lib.GetRedisClient()
	if rd != nil {
		if raw, err := json.Marshal(handle); err == nil {
			rd.SetEx(context.Background(), checkoutHandleKey(orderRef), string(raw), 24*time.Hour)
		}
	}
	return handle, nil
}

func renderCheckoutQR(orderRef string, checkoutURL string) (*string, error) {
	qrc, err := qrcode.New(checkoutURL)
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	tempdir := os.Getenv("API_TMP_DIR")
	if tempdir == "" {
		tempdir = "tmp"
	}
	filename := fmt.Sprintf("checkout-%s.jpeg", orderRef)
	filepath := path.Join(wd, tempdir, filename)
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return nil, err
	}
	return awslib.S3UploadAsset(filename, filepath)
}

// GetCheckoutHandle replays a previously issued handle from cache.
func GetCheckoutHandle(orderRef string) (*types.CheckoutHandle, error) {
	rd := lib.GetRedisClient()
	raw, err := rd.Get(context.Background(), checkoutHandleKey(orderRef)).Result()
	if err != nil {
		return nil, types.NewAppError(types.ErrNotFound, "no active checkout for order %s", orderRef)
	}
	var handle types.CheckoutHandle
	if err := json.Unmarshal([]byte(raw), &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

// VerifyPayment polls the gateway for the order and reconciles the ledger
// with whatever it says. The fallback for a lost webhook.
func VerifyPayment(orderRef string) (lib.PaymentStatus, error) {
	gw := lib.GetPaymentGateway()
	status, err := gw.Get(context.Background(), orderRef)
	if err != nil {
		return "", err
	}
	switch status {
	case lib.PAYMENT_PAID:
		if err := ApplyPaymentOutcome(orderRef, types.PAYMENT_EVENT_PAID, nil); err != nil {
			return status, err
		}
	case lib.PAYMENT_CANCELED:
		if err := ApplyPaymentOutcome(orderRef, types.PAYMENT_EVENT_CANCELED, nil); err != nil {
			return status, err
		}
	}
	return status, nil
}

// ApplyPaymentOutcome is the single write path for gateway outcomes, used
// by both the webhook and the verify fallback. The (order_ref, status)
// unique index turns the gateway's at-least-once delivery into exactly one
// ledger mutation: replays insert nothing and return early.
func ApplyPaymentOutcome(orderRef string, status types.PaymentEventStatus, payload *types.JSONB) error {
	var bookingId uint
	applied := false
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		event := models.PaymentEvent{
			OrderRef: orderRef,
			Status:   status,
			Payload:  payload,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected < 1 {
			log.Printf("[payments] Outcome %s for order %s already applied\n", status, orderRef)
			return nil
		}
		invoice, err := lockInvoiceByOrderRef(tx, orderRef)
		if err != nil {
			return err
		}
		switch status {
		case types.PAYMENT_EVENT_PAID:
			if err := markInvoicePaidTx(tx, invoice, "card"); err != nil {
				return err
			}
			bookingId = invoice.BookingID
			applied = true
		case types.PAYMENT_EVENT_CANCELED:
			// The link is dead; clear the ref so a fresh checkout can be
			// minted for the still-unpaid invoice.
			if invoice.PaymentStatus == types.INVOICE_UNPAID {
				if err := tx.
					Model(&models.Invoice{}).
					Where(&models.Invoice{ID: invoice.ID}).
					Update("order_ref", nil).
					Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[payments] ApplyPaymentOutcome %s/%s failed: %s\n", orderRef, status, err.Error())
		return err
	}
	if applied {
		notifyBookingEvent("booking-paid", bookingId, 0)
	}
	return nil
}
