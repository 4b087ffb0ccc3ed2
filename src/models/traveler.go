package models

import (
	"time"
	"tourops/src/types"
)

type Traveler struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	BookingID   uint      `json:"booking_id,omitempty"`
	FullName    string    `json:"full_name,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth,omitempty"`
	DocumentNo  string    `json:"document_no,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Version     uint      `gorm:"default:1" json:"version"`

	Booking Booking `json:"-"`

	types.Timestamps
}
