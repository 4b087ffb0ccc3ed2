package models

import (
	"tourops/src/types"
)

type Route struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Name        string  `json:"name,omitempty"`
	Slug        string  `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Origin      string  `json:"origin,omitempty"`
	Destination string  `json:"destination,omitempty"`
	ImageKey    *string `json:"-"`

	// ImageURL is filled in from the media store when composing views; a
	// fetch failure just leaves it empty.
	ImageURL *string `gorm:"-" json:"image_url,omitempty"`

	Trips []Trip `gorm:"foreignKey:route_id" json:"trips,omitempty"`

	types.Timestamps
}
