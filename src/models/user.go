package models

import (
	"tourops/src/types"
)

type User struct {
	ID       uint            `gorm:"primarykey" json:"id"`
	Name     string          `json:"name,omitempty"`
	Email    string          `json:"email,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
	Role     string          `gorm:"default:'customer'" json:"role,omitempty"`
	Metadata *types.Metadata `gorm:"type:jsonb" json:"-"`

	Bookings  []Booking  `gorm:"foreignKey:user_id" json:"bookings,omitempty"`
	CartItems []CartItem `gorm:"foreignKey:user_id" json:"cart_items,omitempty"`

	types.Timestamps
}
