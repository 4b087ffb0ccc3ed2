package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

// Lead times in days. Booking closes 2 days before departure; traveler
// edits close 3 days before.
const (
	MIN_BOOKING_LEAD_DAYS       = 2
	MIN_TRAVELER_EDIT_LEAD_DAYS = 3
)

type TripStatus string

const (
	TRIP_SCHEDULED TripStatus = "scheduled"
	TRIP_ONGOING   TripStatus = "ongoing"
	TRIP_FINISHED  TripStatus = "finished"
	TRIP_CANCELED  TripStatus = "canceled"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "canceled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

// CanTransitionBooking reports whether a booking may move from one status
// to another. CANCELED and COMPLETED are terminal.
func CanTransitionBooking(from BookingStatus, to BookingStatus) bool {
	switch from {
	case BOOKING_PENDING:
		return to == BOOKING_CONFIRMED || to == BOOKING_CANCELED
	case BOOKING_CONFIRMED:
		return to == BOOKING_COMPLETED || to == BOOKING_CANCELED
	default:
		return false
	}
}

type InvoiceStatus string

const (
	INVOICE_UNPAID   InvoiceStatus = "unpaid"
	INVOICE_PAID     InvoiceStatus = "paid"
	INVOICE_REFUNDED InvoiceStatus = "refunded"
)

// CanTransitionInvoice reports whether an invoice may move from one payment
// status to another. REFUNDED is terminal and PAID never reverts to UNPAID.
func CanTransitionInvoice(from InvoiceStatus, to InvoiceStatus) bool {
	switch from {
	case INVOICE_UNPAID:
		return to == INVOICE_PAID
	case INVOICE_PAID:
		return to == INVOICE_REFUNDED
	default:
		return false
	}
}

type PaymentEventStatus string

const (
	PAYMENT_EVENT_PAID     PaymentEventStatus = "paid"
	PAYMENT_EVENT_CANCELED PaymentEventStatus = "canceled"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateRouteRequestBody struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Origin      string  `json:"origin" binding:"required"`
	Destination string  `json:"destination" binding:"required"`
	ImageKey    *string `json:"image_key,omitempty"`
}

type CreateTripRequestBody struct {
	RouteID       uint    `json:"route" binding:"required"`
	DepartureDate string  `json:"departure_date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	ReturnDate    string  `json:"return_date" binding:"required,gtdate=DepartureDate" time_format:"2006-01-02 15:04:05 -07:00"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	TotalSeats    uint    `json:"total_seats" binding:"required,gt=0"`
}

type TravelerInput struct {
	FullName    string  `json:"full_name" binding:"required"`
	Gender      string  `json:"gender" binding:"required"`
	DateOfBirth string  `json:"date_of_birth" binding:"required"`
	DocumentNo  string  `json:"document_no" binding:"required"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

type CreateBookingRequestBody struct {
	TripID     uint            `json:"trip" binding:"required"`
	NoAdults   uint            `json:"no_adults" binding:"required,gt=0"`
	NoChildren uint            `json:"no_children"`
	Travelers  []TravelerInput `json:"travelers" binding:"required,min=1,dive"`
}

type EditTravelersRequestBody struct {
	Travelers []TravelerInput `json:"travelers" binding:"required,min=1,dive"`
	Version   uint            `json:"version" binding:"required"`
}

type ChangeQuantityRequestBody struct {
	NoAdults   uint `json:"no_adults" binding:"required,gt=0"`
	NoChildren uint `json:"no_children"`
	Version    uint `json:"version" binding:"required"`
}

type AddCartItemRequestBody struct {
	TripID uint `json:"trip" binding:"required"`
	Qty    uint `json:"qty" binding:"required,gt=0"`
}

type PayInvoiceRequestBody struct {
	Method string `json:"method" binding:"required"`
}

type CancelTripRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// RefundQuote is what a cancellation (or its preview) returns to the caller.
// Amounts are rounded half-up to 2 decimals by the refund policy.
type RefundQuote struct {
	DaysUntilDeparture int     `json:"days_until_departure"`
	RefundPercent      int     `json:"refund_percent"`
	TotalPaid          float64 `json:"total_paid"`
	RefundAmount       float64 `json:"refund_amount"`
	Penalty            float64 `json:"penalty"`
}

// CheckoutHandle is the composed payment handle returned when a payment
// link is created for an invoice.
type CheckoutHandle struct {
	OrderRef    string `json:"order_ref"`
	CheckoutURL string `json:"checkout_url"`
	QRCodeURL   string `json:"qr_code_url,omitempty"`
}
