package models

import (
	"tourops/src/types"
)

// CartItem is a per-user-per-trip staging row. UnitPrice is a snapshot of
// the trip price at add time; checkout consumes the row via soft delete.
type CartItem struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	UserID    uint    `json:"user_id,omitempty"`
	TripID    uint    `json:"trip_id,omitempty"`
	Qty       uint    `json:"qty"`
	UnitPrice float64 `json:"unit_price"`

	Trip Trip `json:"trip,omitempty"`
	User User `json:"-"`

	types.Timestamps
}
