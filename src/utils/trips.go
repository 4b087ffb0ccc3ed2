package utils

import (
	"errors"
	"log"
	"time"

	"tourops/src/config"
	"tourops/src/db"
	awslib "tourops/src/lib/aws"
	"tourops/src/models"
	"tourops/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func CreateNewRoute(params *types.CreateRouteRequestBody) (uint, error) {
	route := models.Route{
		Name:        params.Name,
		Slug:        slug.Make(params.Name),
		Description: params.Description,
		Origin:      params.Origin,
		Destination: params.Destination,
		ImageKey:    params.ImageKey,
	}
	db := db.GetDb()
	if err := db.Create(&route).Error; err != nil {
		log.Printf("[trips] Failed to create route: %s\n", err.Error())
		return 0, err
	}
	return route.ID, nil
}

func GetRoute(id uint) (*models.Route, error) {
	var route models.Route
	db := db.GetDb()
	if err := db.
		Model(&models.Route{}).
		Where(&models.Route{ID: id}).
		First(&route).
		Error; err != nil {
		return nil, types.NewAppError(types.ErrNotFound, "route %d does not exist", id)
	}
	attachRouteImage(&route)
	return &route, nil
}

func ListRoutes() ([]*models.Route, error) {
	var routes []*models.Route
	db := db.GetDb()
	if err := db.Order("name asc").Find(&routes).Error; err != nil {
		return nil, err
	}
	for _, r := range routes {
		attachRouteImage(r)
	}
	return routes, nil
}

func attachRouteImage(route *models.Route) {
	if route.ImageKey == nil {
		return
	}
	url, err := awslib.S3PresignAsset(*route.ImageKey)
	if err != nil {
		return
	}
	route.ImageURL = url
}

func CreateNewTrip(createdBy uint, params *types.CreateTripRequestBody) (uint, error) {
	departure, err := time.Parse(config.TIME_PARSE_FORMAT, params.DepartureDate)
	if err != nil {
		return 0, types.NewAppError(types.ErrIneligibleState, "invalid departure date %q", params.DepartureDate)
	}
	returnDate, err := time.Parse(config.TIME_PARSE_FORMAT, params.ReturnDate)
	if err != nil {
		return 0, types.NewAppError(types.ErrIneligibleState, "invalid return date %q", params.ReturnDate)
	}
	trip := models.Trip{
		RouteID:       params.RouteID,
		DepartureDate: departure,
		ReturnDate:    returnDate,
		Price:         params.Price,
		TotalSeats:    params.TotalSeats,
		Status:        types.TRIP_SCHEDULED,
		CreatedBy:     createdBy,
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var route models.Route
		if err := tx.Where(&models.Route{ID: params.RouteID}).First(&route).Error; err != nil {
			return types.NewAppError(types.ErrNotFound, "route %d does not exist", params.RouteID)
		}
		return tx.Create(&trip).Error
	})
	if err != nil {
		log.Printf("[trips] Failed to create trip: %s\n", err.Error())
		return 0, err
	}
	return trip.ID, nil
}

func GetTrip(id uint) (*models.Trip, error) {
	var trip models.Trip
	db := db.GetDb()
	if err := db.
		Model(&models.Trip{}).
		Where(&models.Trip{ID: id}).
		Preload("Route").
		First(&trip).
		Error; err != nil {
		return nil, types.NewAppError(types.ErrNotFound, "trip %d does not exist", id)
	}
	trip.Stats = &models.TripSeatStats{
		TripID:   trip.ID,
		Free:     trip.TotalSeats - trip.BookedSeats,
		Reserved: trip.BookedSeats,
	}
	attachRouteImage(&trip.Route)
	return &trip, nil
}

// ListOpenTrips returns departures still on sale, soonest first.
func ListOpenTrips(routeId *uint) ([]*models.Trip, error) {
	var trips []*models.Trip
	db := db.GetDb()
	tx := db.Session(&gorm.Session{PrepareStmt: true})
	cutoff := time.Now().AddDate(0, 0, types.MIN_BOOKING_LEAD_DAYS)
	q := tx.
		Where(&models.Trip{Status: types.TRIP_SCHEDULED}).
		Where("departure_date >= ?", cutoff).
		Preload("Route").
		Order("departure_date asc")
	if routeId != nil {
		q = q.Where(&models.Trip{RouteID: *routeId})
	}
	if err := q.Find(&trips).Error; err != nil {
		return nil, err
	}
	for _, t := range trips {
		t.Stats = &models.TripSeatStats{
			TripID:   t.ID,
			Free:     t.TotalSeats - t.BookedSeats,
			Reserved: t.BookedSeats,
		}
	}
	return trips, nil
}

// CancelTrip takes a departure off sale and cancels every live booking on
// it, quoting refunds at the full paid amount regardless of lead time
// since the operator, not the customer, is pulling out.
func CancelTrip(tripId uint, reason string) error {
	db := db.GetDb()
	var affected []uint
	err := db.Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.Where(&models.Trip{ID: tripId}).First(&trip).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAppError(types.ErrNotFound, "trip %d does not exist", tripId)
			}
			return err
		}
		if trip.Status != types.TRIP_SCHEDULED {
			return types.NewAppError(types.ErrIneligibleState, "trip %d is %s and cannot be canceled", tripId, trip.Status)
		}
		if err := tx.
			Model(&models.Trip{}).
			Where(&models.Trip{ID: tripId}).
			Update("status", types.TRIP_CANCELED).
			Error; err != nil {
			return err
		}
		var bookings []models.Booking
		if err := tx.
			Where("trip_id = ? AND status IN (?)", tripId, []types.BookingStatus{
				types.BOOKING_PENDING,
				types.BOOKING_CONFIRMED,
			}).
			Find(&bookings).
			Error; err != nil {
			return err
		}
		for i := range bookings {
			b := &bookings[i]
			if err := tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: b.ID}).
				Updates(map[string]any{
					"status":  types.BOOKING_CANCELED,
					"version": b.Version + 1,
				}).Error; err != nil {
				return err
			}
			if err := tx.
				Model(&models.Invoice{}).
				Where(&models.Invoice{BookingID: b.ID, PaymentStatus: types.INVOICE_PAID}).
				Update("payment_status", types.INVOICE_REFUNDED).
				Error; err != nil {
				return err
			}
			affected = append(affected, b.ID)
		}
		// Counters go to zero with the trip; no per-booking release needed.
		if err := tx.
			Model(&models.Trip{}).
			Where(&models.Trip{ID: tripId}).
			Update("booked_seats", 0).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("[trips] CancelTrip %d failed: %s\n", tripId, err.Error())
		return err
	}
	log.Printf("[trips] Trip %d canceled (%s), %d bookings affected\n", tripId, reason, len(affected))
	for _, id := range affected {
		notifyBookingEvent("booking-canceled", id, 0)
	}
	return nil
}

// AdvanceTripStatuses rolls scheduled trips to ongoing at departure and
// ongoing trips to finished after return. Runs on a schedule from boot;
// finished trips also complete their confirmed bookings.
func AdvanceTripStatuses() {
	db := db.GetDb()
	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Trip{}).
			Where("status = ? AND departure_date <= ?", types.TRIP_SCHEDULED, now).
			Update("status", types.TRIP_ONGOING).
			Error; err != nil {
			return err
		}
		var finished []models.Trip
		if err := tx.
			Where("status = ? AND return_date <= ?", types.TRIP_ONGOING, now).
			Find(&finished).
			Error; err != nil {
			return err
		}
		for i := range finished {
			if err := tx.
				Model(&models.Trip{}).
				Where(&models.Trip{ID: finished[i].ID}).
				Update("status", types.TRIP_FINISHED).
				Error; err != nil {
				return err
			}
			if err := tx.
				Model(&models.Booking{}).
				Where(&models.Booking{TripID: finished[i].ID, Status: types.BOOKING_CONFIRMED}).
				Update("status", types.BOOKING_COMPLETED).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[trips] AdvanceTripStatuses failed: %s\n", err.Error())
	}
}
