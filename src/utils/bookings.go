package utils

import (
	"errors"
	"log"
	"time"

	"tourops/src/config"
	"tourops/src/db"
	"tourops/src/lib"
	"tourops/src/models"
	"tourops/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DepartsOnOrBefore reports whether the departure calendar day is the
// same day as now or earlier, ignoring the time of day.
func DepartsOnOrBefore(departure time.Time, now time.Time) bool {
	y1, m1, d1 := departure.Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 <= d2
}

// CheckTravelerEditLead enforces the roster freeze: traveler records are
// locked 3 days before departure.
func CheckTravelerEditLead(departure time.Time, now time.Time) error {
	cutoff := departure.AddDate(0, 0, -types.MIN_TRAVELER_EDIT_LEAD_DAYS)
	if now.After(cutoff) {
		return types.NewAppError(types.ErrIneligibleState, "traveler roster is locked %d days before departure",
			types.MIN_TRAVELER_EDIT_LEAD_DAYS)
	}
	return nil
}

func parseTravelerInput(input *types.TravelerInput, bookingId uint) (*models.Traveler, error) {
	dob, err := time.Parse(config.DATE_PARSE_FORMAT, input.DateOfBirth)
	if err != nil {
		return nil, types.NewAppError(types.ErrIneligibleState, "invalid date of birth %q for traveler %s", input.DateOfBirth, input.FullName)
	}
	return &models.Traveler{
		BookingID:   bookingId,
		FullName:    input.FullName,
		Gender:      input.Gender,
		DateOfBirth: dob,
		DocumentNo:  input.DocumentNo,
		Email:       input.Email,
		Phone:       input.Phone,
	}, nil
}

// createBookingTx builds the booking rows inside an open transaction so
// cart checkout can batch several bookings into one commit. The seat take,
// the booking, its detail, the traveler roster and the unpaid invoice all
// land together or not at all.
func createBookingTx(tx *gorm.DB, userId uint, params *types.CreateBookingRequestBody, cartItemId *uint, now time.Time) (*models.Booking, error) {
	seats := params.NoAdults + params.NoChildren
	if uint(len(params.Travelers)) != seats {
		return nil, types.NewAppError(types.ErrIneligibleState, "expected %d travelers, got %d", seats, len(params.Travelers))
	}
	trip, err := ReserveSeats(tx, params.TripID, seats, now)
	if err != nil {
		return nil, err
	}
	totalPrice := RoundMoney(trip.Price * float64(seats))
	booking := models.Booking{
		TripID:      params.TripID,
		UserID:      userId,
		SeatsBooked: seats,
		TotalPrice:  totalPrice,
		Status:      types.BOOKING_PENDING,
		CartItemID:  cartItemId,
	}
	if err := tx.Create(&booking).Error; err != nil {
		return nil, err
	}
	detail := models.BookingDetail{
		BookingID:  booking.ID,
		NoAdults:   params.NoAdults,
		NoChildren: params.NoChildren,
	}
	if err := tx.Create(&detail).Error; err != nil {
		return nil, err
	}
	for i := range params.Travelers {
		traveler, err := parseTravelerInput(&params.Travelers[i], booking.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Create(traveler).Error; err != nil {
			return nil, err
		}
	}
	invoice := models.Invoice{
		BookingID:     booking.ID,
		TotalAmount:   totalPrice,
		PaymentStatus: types.INVOICE_UNPAID,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		return nil, err
	}
	booking.Detail = &detail
	booking.Invoice = &invoice
	return &booking, nil
}

func CreateNewBooking(userId uint, params *types.CreateBookingRequestBody) (*models.Booking, error) {
	var booking *models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := createBookingTx(tx, userId, params, nil, time.Now())
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		log.Printf("[bookings] CreateNewBooking failed: %s\n", err.Error())
		return nil, err
	}
	notifyBookingEvent("booking-created", booking.ID, userId)
	return booking, nil
}

// GetBooking returns the composed view: trip with route, traveler roster,
// detail counts and the invoice.
func GetBooking(id uint) (*models.Booking, error) {
	var booking models.Booking
	db := db.GetDb()
	if err := db.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: id}).
		Preload("Trip.Route").
		Preload("User").
		Preload("Detail").
		Preload("Travelers").
		Preload("Invoice").
		First(&booking).
		Error; err != nil {
		return nil, types.NewAppError(types.ErrNotFound, "booking %d does not exist", id)
	}
	return &booking, nil
}

func lockBooking(tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.
		Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		}).
		Where(&models.Booking{ID: id}).
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAppError(types.ErrNotFound, "booking %d does not exist", id)
		}
		return nil, err
	}
	return &booking, nil
}

// EditTravelers replaces the roster details positionally against the
// travelers ordered by id, creating records for seats added after the
// fact. The submitted roster must cover every booked seat. Guarded by the
// booking version so two concurrent edits cannot silently overwrite each
// other.
func EditTravelers(bookingId uint, params *types.EditTravelersRequestBody) (*models.Booking, error) {
	var updated *models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingId)
		if err != nil {
			return err
		}
		if booking.Status == types.BOOKING_CANCELED || booking.Status == types.BOOKING_COMPLETED {
			return types.NewAppError(types.ErrIneligibleState, "booking %d is %s and cannot be edited", bookingId, booking.Status)
		}
		if booking.Version != params.Version {
			return types.NewAppError(types.ErrConcurrencyConflict, "booking %d was modified, reload and retry", bookingId)
		}
		var trip models.Trip
		if err := tx.Where(&models.Trip{ID: booking.TripID}).First(&trip).Error; err != nil {
			return err
		}
		if err := CheckTravelerEditLead(trip.DepartureDate, time.Now()); err != nil {
			return err
		}
		var travelers []models.Traveler
		if err := tx.
			Where(&models.Traveler{BookingID: bookingId}).
			Order("id asc").
			Find(&travelers).
			Error; err != nil {
			return err
		}
		// The roster may still be catching up to the seat count, but an
		// edit can neither shrink it (removal has its own path) nor grow
		// it past the booked seats.
		if uint(len(params.Travelers)) > booking.SeatsBooked {
			return types.NewAppError(types.ErrIneligibleState, "booking %d holds %d seats, roster covers %d",
				bookingId, booking.SeatsBooked, len(params.Travelers))
		}
		if len(params.Travelers) < len(travelers) {
			return types.NewAppError(types.ErrIneligibleState, "roster has %d travelers, removal goes through the traveler delete endpoint", len(travelers))
		}
		for i := range params.Travelers {
			next, err := parseTravelerInput(&params.Travelers[i], bookingId)
			if err != nil {
				return err
			}
			if i >= len(travelers) {
				if err := tx.Create(next).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.
				Model(&models.Traveler{}).
				Where(&models.Traveler{ID: travelers[i].ID}).
				Updates(map[string]any{
					"full_name":     next.FullName,
					"gender":        next.Gender,
					"date_of_birth": next.DateOfBirth,
					"document_no":   next.DocumentNo,
					"email":         next.Email,
					"phone":         next.Phone,
					"version":       travelers[i].Version + 1,
				}).Error; err != nil {
				return err
			}
		}
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: bookingId}).
			Update("version", booking.Version+1).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated, err = GetBooking(bookingId)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveTraveler drops one traveler from the roster, gives the seat back
// and reprices the booking. Removing the last traveler cancels the whole
// booking instead of leaving an empty shell.
func RemoveTraveler(bookingId uint, travelerId uint) (*models.Booking, *types.RefundQuote, error) {
	var quote *types.RefundQuote
	canceled := false
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingId)
		if err != nil {
			return err
		}
		if booking.Status == types.BOOKING_CANCELED || booking.Status == types.BOOKING_COMPLETED {
			return types.NewAppError(types.ErrIneligibleState, "booking %d is %s and cannot be edited", bookingId, booking.Status)
		}
		var trip models.Trip
		if err := tx.Where(&models.Trip{ID: booking.TripID}).First(&trip).Error; err != nil {
			return err
		}
		if err := CheckTravelerEditLead(trip.DepartureDate, time.Now()); err != nil {
			return err
		}
		var traveler models.Traveler
		if err := tx.
			Where(&models.Traveler{ID: travelerId, BookingID: bookingId}).
			First(&traveler).
			Error; err != nil {
			return types.NewAppError(types.ErrNotFound, "traveler %d does not exist on booking %d", travelerId, bookingId)
		}
		var count int64
		if err := tx.
			Model(&models.Traveler{}).
			Where(&models.Traveler{BookingID: bookingId}).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count <= 1 {
			q, err := cancelBookingTx(tx, booking, time.Now())
			if err != nil {
				return err
			}
			quote = q
			canceled = true
			return nil
		}
		if err := tx.Delete(&traveler).Error; err != nil {
			return err
		}
		if err := ReleaseSeats(tx, booking.TripID, 1); err != nil {
			return err
		}
		newSeats := booking.SeatsBooked - 1
		newPrice := RoundMoney(trip.Price * float64(newSeats))
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: bookingId}).
			Updates(map[string]any{
				"seats_booked": newSeats,
				"total_price":  newPrice,
				"version":      booking.Version + 1,
			}).Error; err != nil {
			return err
		}
		var invoice models.Invoice
		if err := tx.Where(&models.Invoice{BookingID: bookingId}).First(&invoice).Error; err != nil {
			return err
		}
		// A paid invoice keeps its amount; the difference is settled by
		// the refund flow, not by rewriting history.
		if invoice.PaymentStatus == types.INVOICE_UNPAID {
			if err := tx.
				Model(&models.Invoice{}).
				Where(&models.Invoice{ID: invoice.ID}).
				Update("total_amount", newPrice).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if canceled {
		notifyBookingEvent("booking-canceled", bookingId, 0)
		return nil, quote, nil
	}
	booking, err := GetBooking(bookingId)
	if err != nil {
		return nil, nil, err
	}
	return booking, nil, nil
}

// ChangeQuantity resizes a booking before it is confirmed. The price and
// the invoice amount move together so the two can never disagree.
func ChangeQuantity(bookingId uint, params *types.ChangeQuantityRequestBody) (*models.Booking, error) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingId)
		if err != nil {
			return err
		}
		if booking.Status != types.BOOKING_PENDING {
			return types.NewAppError(types.ErrIneligibleState, "booking %d is %s, quantity can only change while pending", bookingId, booking.Status)
		}
		if booking.Version != params.Version {
			return types.NewAppError(types.ErrConcurrencyConflict, "booking %d was modified, reload and retry", bookingId)
		}
		newSeats := params.NoAdults + params.NoChildren
		if newSeats == booking.SeatsBooked {
			return nil
		}
		var travelerCount int64
		if err := tx.
			Model(&models.Traveler{}).
			Where(&models.Traveler{BookingID: bookingId}).
			Count(&travelerCount).
			Error; err != nil {
			return err
		}
		if newSeats < uint(travelerCount) {
			return types.NewAppError(types.ErrIneligibleState, "booking %d has %d travelers, remove travelers before shrinking to %d seats",
				bookingId, travelerCount, newSeats)
		}
		var trip *models.Trip
		if newSeats > booking.SeatsBooked {
			trip, err = ReserveSeats(tx, booking.TripID, newSeats-booking.SeatsBooked, time.Now())
			if err != nil {
				return err
			}
		} else {
			if err := ReleaseSeats(tx, booking.TripID, booking.SeatsBooked-newSeats); err != nil {
				return err
			}
			var t models.Trip
			if err := tx.Where(&models.Trip{ID: booking.TripID}).First(&t).Error; err != nil {
				return err
			}
			trip = &t
		}
		newPrice := RoundMoney(trip.Price * float64(newSeats))
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: bookingId}).
			Updates(map[string]any{
				"seats_booked": newSeats,
				"total_price":  newPrice,
				"version":      booking.Version + 1,
			}).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.BookingDetail{}).
			Where(&models.BookingDetail{BookingID: bookingId}).
			Updates(map[string]any{
				"no_adults":   params.NoAdults,
				"no_children": params.NoChildren,
			}).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Invoice{}).
			Where(&models.Invoice{BookingID: bookingId}).
			Update("total_amount", newPrice).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetBooking(bookingId)
}

// cancelBookingTx does the actual cancellation inside an open transaction:
// status flip, seat release, and the refund or gateway cleanup the invoice
// state calls for.
func cancelBookingTx(tx *gorm.DB, booking *models.Booking, now time.Time) (*types.RefundQuote, error) {
	if !types.CanTransitionBooking(booking.Status, types.BOOKING_CANCELED) {
		return nil, types.NewAppError(types.ErrIneligibleState, "booking %d is %s and cannot be canceled", booking.ID, booking.Status)
	}
	var trip models.Trip
	if err := tx.Where(&models.Trip{ID: booking.TripID}).First(&trip).Error; err != nil {
		return nil, err
	}
	// No cancellation on or after departure day.
	if DepartsOnOrBefore(trip.DepartureDate, now) {
		return nil, types.NewAppError(types.ErrIneligibleState, "trip %d departs today or has departed, booking %d cannot be canceled", trip.ID, booking.ID)
	}
	var invoice models.Invoice
	if err := tx.Where(&models.Invoice{BookingID: booking.ID}).First(&invoice).Error; err != nil {
		return nil, err
	}
	quote := ComputeRefund(&invoice, trip.DepartureDate, now)
	if err := tx.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: booking.ID}).
		Updates(map[string]any{
			"status":  types.BOOKING_CANCELED,
			"version": booking.Version + 1,
		}).Error; err != nil {
		return nil, err
	}
	if err := ReleaseSeats(tx, booking.TripID, booking.SeatsBooked); err != nil {
		return nil, err
	}
	if invoice.PaymentStatus == types.INVOICE_PAID {
		if err := tx.
			Model(&models.Invoice{}).
			Where(&models.Invoice{ID: invoice.ID}).
			Update("payment_status", types.INVOICE_REFUNDED).
			Error; err != nil {
			return nil, err
		}
	} else if invoice.OrderRef != nil {
		// Best effort. An expired checkout link just stops accepting money.
		gw := lib.GetPaymentGateway()
		if err := gw.Cancel(tx.Statement.Context, *invoice.OrderRef, "booking canceled"); err != nil {
			log.Printf("[bookings] Could not expire checkout for order %s: %s\n", *invoice.OrderRef, err.Error())
		}
	}
	return quote, nil
}

func CancelBooking(bookingId uint, userId uint) (*types.RefundQuote, error) {
	var quote *types.RefundQuote
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingId)
		if err != nil {
			return err
		}
		q, err := cancelBookingTx(tx, booking, time.Now())
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		log.Printf("[bookings] CancelBooking %d failed: %s\n", bookingId, err.Error())
		return nil, err
	}
	notifyBookingEvent("booking-canceled", bookingId, userId)
	return quote, nil
}

// PreviewCancel quotes a cancellation without touching anything.
func PreviewCancel(bookingId uint) (*types.RefundQuote, error) {
	booking, err := GetBooking(bookingId)
	if err != nil {
		return nil, err
	}
	if !types.CanTransitionBooking(booking.Status, types.BOOKING_CANCELED) {
		return nil, types.NewAppError(types.ErrIneligibleState, "booking %d is %s and cannot be canceled", bookingId, booking.Status)
	}
	now := time.Now()
	if DepartsOnOrBefore(booking.Trip.DepartureDate, now) {
		return nil, types.NewAppError(types.ErrIneligibleState, "trip %d departs today or has departed, booking %d cannot be canceled", booking.TripID, bookingId)
	}
	return ComputeRefund(booking.Invoice, booking.Trip.DepartureDate, now), nil
}

// CompleteBooking closes out a confirmed booking after the trip ran.
func CompleteBooking(bookingId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingId)
		if err != nil {
			return err
		}
		if !types.CanTransitionBooking(booking.Status, types.BOOKING_COMPLETED) {
			return types.NewAppError(types.ErrIneligibleState, "booking %d is %s and cannot be completed", bookingId, booking.Status)
		}
		return tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: bookingId}).
			Update("status", types.BOOKING_COMPLETED).
			Error
	})
}

func notifyBookingEvent(topic string, bookingId uint, userId uint) {
	go func() {
		payload := map[string]any{
			"bookingId": bookingId,
			"userId":    userId,
			"at":        time.Now().Format(time.RFC3339),
		}
		if err := lib.KafkaProduceMessage("bookings", topic, payload); err != nil {
			log.Printf("[bookings] Failed to publish %s for booking %d: %s\n", topic, bookingId, err.Error())
		}
	}()
}

// ListBookingsForUser powers the account view; newest first.
func ListBookingsForUser(userId uint) ([]*models.Booking, error) {
	var bookings []*models.Booking
	db := db.GetDb()
	tx := db.Session(&gorm.Session{PrepareStmt: true})
	err := tx.
		Where(&models.Booking{UserID: userId}).
		Preload("Trip.Route").
		Preload("Invoice").
		Order("created_at desc").
		Find(&bookings).
		Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListBookingsForTrip is the staff manifest for a departure.
func ListBookingsForTrip(tripId uint) ([]*models.Booking, error) {
	var bookings []*models.Booking
	db := db.GetDb()
	if err := db.
		Where(&models.Booking{TripID: tripId}).
		Preload("User").
		Preload("Travelers").
		Preload("Invoice").
		Order("created_at asc").
		Find(&bookings).
		Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
