package models

import (
	"time"
	"tourops/src/types"
)

// Trip seat inventory invariant: 0 <= BookedSeats <= TotalSeats, mutated
// only inside utils.ReserveSeats/ReleaseSeats under a row lock.
type Trip struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	RouteID       uint             `json:"route_id,omitempty"`
	DepartureDate time.Time        `json:"departure_date,omitempty"`
	ReturnDate    time.Time        `json:"return_date,omitempty"`
	Price         float64          `json:"price"`
	TotalSeats    uint             `json:"total_seats"`
	BookedSeats   uint             `json:"booked_seats"`
	Status        types.TripStatus `gorm:"default:'scheduled'" json:"status,omitempty"`
	CreatedBy     uint             `json:"created_by,omitempty"`

	Route    Route     `json:"route,omitempty"`
	Bookings []Booking `gorm:"foreignKey:trip_id" json:"bookings,omitempty"`

	Stats *TripSeatStats `gorm:"-" json:"stats,omitempty"`

	types.Timestamps
}

type TripSeatStats struct {
	TripID   uint `json:"trip_id,omitempty"`
	Free     uint `json:"free"`
	Reserved uint `json:"reserved"`
}
