package utils

import (
	"log"
	"time"

	"tourops/src/db"
	"tourops/src/models"
	"tourops/src/types"

	"gorm.io/gorm"
)

// AddCartItem snapshots the trip price at the time the item is added. A
// later price change on the trip does not reprice the cart.
func AddCartItem(userId uint, params *types.AddCartItemRequestBody) (*models.CartItem, error) {
	var item models.CartItem
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.Where(&models.Trip{ID: params.TripID}).First(&trip).Error; err != nil {
			return types.NewAppError(types.ErrNotFound, "trip %d does not exist", params.TripID)
		}
		if trip.Status != types.TRIP_SCHEDULED {
			return types.NewAppError(types.ErrIneligibleState, "trip %d is %s and cannot be added to cart", params.TripID, trip.Status)
		}
		if err := CheckBookingLead(trip.DepartureDate, time.Now()); err != nil {
			return err
		}
		item = models.CartItem{
			UserID:    userId,
			TripID:    params.TripID,
			Qty:       params.Qty,
			UnitPrice: trip.Price,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func ListCartItems(userId uint) ([]*models.CartItem, error) {
	var items []*models.CartItem
	db := db.GetDb()
	err := db.
		Where(&models.CartItem{UserID: userId}).
		Preload("Trip.Route").
		Order("created_at asc").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func RemoveCartItem(userId uint, itemId uint) error {
	db := db.GetDb()
	res := db.
		Where(&models.CartItem{ID: itemId, UserID: userId}).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return types.NewAppError(types.ErrNotFound, "cart item %d does not exist", itemId)
	}
	return nil
}

type CheckoutCartItemInput struct {
	CartItemID uint
	NoAdults   uint
	NoChildren uint
	Travelers  []types.TravelerInput
}

// CheckoutCart converts every item in the cart into a booking in a single
// transaction. One item failing (sold out, sales closed, trip canceled)
// rolls the whole checkout back; the cart is left untouched for the user
// to fix.
func CheckoutCart(userId uint, inputs []CheckoutCartItemInput) ([]*models.Booking, error) {
	byItem := make(map[uint]*CheckoutCartItemInput, len(inputs))
	for i := range inputs {
		byItem[inputs[i].CartItemID] = &inputs[i]
	}
	var bookings []*models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.
			Where(&models.CartItem{UserID: userId}).
			Order("created_at asc").
			Find(&items).
			Error; err != nil {
			return err
		}
		if len(items) < 1 {
			return types.NewAppError(types.ErrIneligibleState, "cart is empty")
		}
		now := time.Now()
		for i := range items {
			item := &items[i]
			input, ok := byItem[item.ID]
			if !ok {
				return types.NewAppError(types.ErrIneligibleState, "no traveler roster for cart item %d", item.ID)
			}
			if input.NoAdults+input.NoChildren != item.Qty {
				return types.NewAppError(types.ErrIneligibleState, "cart item %d holds %d seats, roster covers %d",
					item.ID, item.Qty, input.NoAdults+input.NoChildren)
			}
			booking, err := createBookingTx(tx, userId, &types.CreateBookingRequestBody{
				TripID:     item.TripID,
				NoAdults:   input.NoAdults,
				NoChildren: input.NoChildren,
				Travelers:  input.Travelers,
			}, &item.ID, now)
			if err != nil {
				return err
			}
			// Consumed, not erased: soft delete keeps the snapshot
			// reachable from the booking it produced.
			if err := tx.Delete(item).Error; err != nil {
				return err
			}
			bookings = append(bookings, booking)
		}
		return nil
	})
	if err != nil {
		log.Printf("[carts] Checkout failed for user %d: %s\n", userId, err.Error())
		return nil, err
	}
	for _, b := range bookings {
		notifyBookingEvent("booking-created", b.ID, userId)
	}
	return bookings, nil
}

// SweepStaleCartItems drops items whose trip has entered the sales cutoff
// or left the scheduled state. Runs on a schedule from boot.
func SweepStaleCartItems() {
	db := db.GetDb()
	now := time.Now()
	cutoff := now.AddDate(0, 0, types.MIN_BOOKING_LEAD_DAYS)
	res := db.
		Where("trip_id IN (?)", db.
			Model(&models.Trip{}).
			Select("id").
			Where("departure_date < ? OR status <> ?", cutoff, types.TRIP_SCHEDULED)).
		Delete(&models.CartItem{})
	if res.Error != nil {
		log.Printf("[carts] Sweep failed: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("[carts] Swept %d stale cart items\n", res.RowsAffected)
	}
}
