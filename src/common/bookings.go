package common

import (
	"fmt"
	"log"
	"os"

	"tourops/src/config"
	"tourops/src/lib"
	"tourops/src/lib/mailer"
	"tourops/src/utils"

	"github.com/tidwall/gjson"
)

// BookingEventsConsumer turns booking lifecycle events into customer
// emails. Delivery is best effort; the booking itself is already
// committed by the time an event lands here.
func BookingEventsConsumer() {
	topics := []string{TOPIC_BOOKING_CREATED, TOPIC_BOOKING_PAID, TOPIC_BOOKING_CANCELED}
	lib.KafkaConsume("booking-notifications", topics, func(topic string, body string) {
		bookingId := uint(gjson.Get(body, "bookingId").Uint())
		if bookingId < 1 {
			log.Printf("[BookingEventsConsumer] Dropping malformed message on %s: %s\n", topic, body)
			return
		}
		booking, err := utils.GetBooking(bookingId)
		if err != nil {
			log.Printf("[BookingEventsConsumer] Could not load booking %d: %s\n", bookingId, err.Error())
			return
		}
		routeName := booking.Trip.Route.Name
		departure := booking.Trip.DepartureDate.Format(config.DATE_PARSE_FORMAT)
		var subject, bodyHtml string
		switch topic {
		case TOPIC_BOOKING_CREATED:
			subject = fmt.Sprintf("Booking received: %s", routeName)
			bodyHtml = fmt.Sprintf(`
				<p>We received your booking for <b>%s</b> departing %s.</p>
				<p>Seats: %d. Total: %.2f</p>
				<p>The booking is held as pending until payment is confirmed.</p>
			`, routeName, departure, booking.SeatsBooked, booking.TotalPrice)
		case TOPIC_BOOKING_PAID:
			subject = fmt.Sprintf("Booking confirmed: %s", routeName)
			bodyHtml = fmt.Sprintf(`
				<p>Payment received. Your booking for <b>%s</b> departing %s is confirmed.</p>
				<p>Seats: %d.</p>
			`, routeName, departure, booking.SeatsBooked)
		case TOPIC_BOOKING_CANCELED:
			subject = fmt.Sprintf("Booking canceled: %s", routeName)
			bodyHtml = fmt.Sprintf(`
				<p>Your booking for <b>%s</b> departing %s has been canceled.</p>
				<p>If you had paid, the refund due under the cancellation policy is on its way.</p>
			`, routeName, departure)
		default:
			return
		}
		senderFrom := os.Getenv("SMTP_FROM")
		input := &lib.SendMailInput{
			Subject:  subject,
			From:     senderFrom,
			FromName: "noreply",
			To:       []string{booking.User.Email},
			Body:     bodyHtml,
			Html:     true,
		}
		if err := mailer.NewMailerMessage(input); err != nil {
			log.Printf("[BookingEventsConsumer] Could not queue email for booking %d: %s\n", bookingId, err.Error())
		}
	})
}
