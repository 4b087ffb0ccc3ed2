package models

import (
	"tourops/src/types"
)

type Booking struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	TripID      uint                `json:"trip_id,omitempty"`
	UserID      uint                `json:"user_id,omitempty"`
	SeatsBooked uint                `json:"seats_booked"`
	TotalPrice  float64             `json:"total_price"`
	Status      types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	CartItemID  *uint               `json:"cart_item_id,omitempty"`
	// Version guards non-inventory edits (travelers, quantity) against
	// lost updates; seat arithmetic relies on the trip row lock instead.
	Version uint `gorm:"default:1" json:"version"`

	Trip      *Trip          `gorm:"foreignKey:trip_id" json:"trip,omitempty"`
	User      *User          `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Detail    *BookingDetail `gorm:"foreignKey:booking_id" json:"detail,omitempty"`
	Travelers []Traveler     `gorm:"foreignKey:booking_id" json:"travelers,omitempty"`
	Invoice   *Invoice       `gorm:"foreignKey:booking_id" json:"invoice,omitempty"`

	types.Timestamps
}

// BookingDetail keeps the adult/child breakdown; after creation it is a
// business record only, seat math uses Booking.SeatsBooked.
type BookingDetail struct {
	ID         uint `gorm:"primarykey" json:"id"`
	BookingID  uint `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	NoAdults   uint `json:"no_adults"`
	NoChildren uint `json:"no_children"`

	types.Timestamps
}
