package utils

import (
	"errors"
	"log"
	"time"

	"tourops/src/config"
	"tourops/src/db"
	"tourops/src/models"
	"tourops/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckSeatAvailability is the capacity decision on its own: can qty more
// seats fit given the current counters.
func CheckSeatAvailability(totalSeats uint, bookedSeats uint, qty uint) error {
	if qty < 1 {
		return types.NewAppError(types.ErrIneligibleState, "seat quantity must be at least 1")
	}
	if bookedSeats+qty > totalSeats {
		free := totalSeats - bookedSeats
		return types.NewAppError(types.ErrCapacityExceeded, "only %d of %d seats available", free, totalSeats)
	}
	return nil
}

// ClampedRelease returns the booked counter after giving back qty seats,
// never going below zero.
func ClampedRelease(bookedSeats uint, qty uint) uint {
	if qty >= bookedSeats {
		return 0
	}
	return bookedSeats - qty
}

// CheckBookingLead enforces the sales cutoff: no new reservations within
// 2 days of departure.
func CheckBookingLead(departure time.Time, now time.Time) error {
	cutoff := departure.AddDate(0, 0, -types.MIN_BOOKING_LEAD_DAYS)
	if now.After(cutoff) {
		return types.NewAppError(types.ErrIneligibleState, "trip departs %s, bookings close %d days before departure",
			departure.Format(config.DATE_PARSE_FORMAT), types.MIN_BOOKING_LEAD_DAYS)
	}
	return nil
}

// ReserveSeats takes qty seats on a trip under a row lock. Must run inside
// the caller's transaction so the seat take commits or rolls back with the
// booking rows.
func ReserveSeats(tx *gorm.DB, tripId uint, qty uint, now time.Time) (*models.Trip, error) {
	var trip models.Trip
	if err := tx.
		Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		}).
		Where(&models.Trip{ID: tripId}).
		First(&trip).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAppError(types.ErrNotFound, "trip %d does not exist", tripId)
		}
		return nil, err
	}
	if trip.Status != types.TRIP_SCHEDULED {
		return nil, types.NewAppError(types.ErrIneligibleState, "trip %d is %s and cannot be booked", tripId, trip.Status)
	}
	if err := CheckBookingLead(trip.DepartureDate, now); err != nil {
		return nil, err
	}
	if err := CheckSeatAvailability(trip.TotalSeats, trip.BookedSeats, qty); err != nil {
		return nil, err
	}
	if err := tx.
		Model(&models.Trip{}).
		Where(&models.Trip{ID: tripId}).
		Update("booked_seats", trip.BookedSeats+qty).
		Error; err != nil {
		log.Printf("[seats] Failed to reserve %d seats on trip %d: %s\n", qty, tripId, err.Error())
		return nil, err
	}
	trip.BookedSeats += qty
	return &trip, nil
}

// ReleaseSeats gives qty seats back under the same row lock. The counter
// clamps at zero so a double release cannot underflow it.
func ReleaseSeats(tx *gorm.DB, tripId uint, qty uint) error {
	var trip models.Trip
	if err := tx.
		Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		}).
		Where(&models.Trip{ID: tripId}).
		First(&trip).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NewAppError(types.ErrNotFound, "trip %d does not exist", tripId)
		}
		return err
	}
	newBooked := ClampedRelease(trip.BookedSeats, qty)
	if err := tx.
		Model(&models.Trip{}).
		Where(&models.Trip{ID: tripId}).
		Update("booked_seats", newBooked).
		Error; err != nil {
		log.Printf("[seats] Failed to release %d seats on trip %d: %s\n", qty, tripId, err.Error())
		return err
	}
	return nil
}

// GetTripSeats reads the counters outside any booking transaction, for
// listings and detail views.
func GetTripSeats(id uint) (free uint, reserved uint, err error) {
	db := db.GetDb()
	var trip models.Trip
	tx := db.Session(&gorm.Session{PrepareStmt: true})
	tx.Where(&models.Trip{ID: id}).First(&trip)
	if trip.ID < 1 {
		err := types.NewAppError(types.ErrNotFound, "trip %d does not exist", id)
		return 0, 0, err
	}
	reserved = trip.BookedSeats
	free = trip.TotalSeats - trip.BookedSeats
	return free, reserved, nil
}
