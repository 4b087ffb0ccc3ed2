package common

// Topics carrying booking lifecycle events between the api and the
// notification consumers.
const (
	TOPIC_BOOKING_CREATED  = "booking-created"
	TOPIC_BOOKING_PAID     = "booking-paid"
	TOPIC_BOOKING_CANCELED = "booking-canceled"
)
