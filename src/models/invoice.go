package models

import (
	"tourops/src/types"
)

// Invoice payment status is the single source of truth for whether a
// booking has been paid.
type Invoice struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	BookingID     uint                `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	TotalAmount   float64             `json:"total_amount"`
	PaymentStatus types.InvoiceStatus `gorm:"default:'unpaid'" json:"payment_status,omitempty"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	OrderRef      *string             `gorm:"index" json:"order_ref,omitempty"`

	Booking Booking `json:"-"`

	types.Timestamps
}
