package utils

import (
	"testing"
	"time"

	"tourops/src/types"

	"github.com/stretchr/testify/assert"
)

func TestCheckSeatAvailability(t *testing.T) {
	assert.NoError(t, CheckSeatAvailability(10, 8, 2))
	assert.NoError(t, CheckSeatAvailability(10, 0, 10))

	err := CheckSeatAvailability(10, 8, 3)
	assert.Error(t, err)
	assert.Equal(t, types.ErrCapacityExceeded, types.KindOf(err))

	err = CheckSeatAvailability(10, 10, 1)
	assert.Error(t, err)
	assert.Equal(t, types.ErrCapacityExceeded, types.KindOf(err))

	err = CheckSeatAvailability(10, 0, 0)
	assert.Error(t, err)
	assert.Equal(t, types.ErrIneligibleState, types.KindOf(err))
}

func TestClampedRelease(t *testing.T) {
	assert.Equal(t, uint(6), ClampedRelease(8, 2))
	assert.Equal(t, uint(0), ClampedRelease(5, 5))
	// Releasing more than held clamps at zero instead of underflowing.
	assert.Equal(t, uint(0), ClampedRelease(2, 5))
	assert.Equal(t, uint(0), ClampedRelease(0, 1))
}

func TestCheckBookingLead(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, CheckBookingLead(now.AddDate(0, 0, 5), now))
	assert.NoError(t, CheckBookingLead(now.AddDate(0, 0, 3), now))

	err := CheckBookingLead(now.AddDate(0, 0, 1), now)
	assert.Error(t, err)
	assert.Equal(t, types.ErrIneligibleState, types.KindOf(err))

	err = CheckBookingLead(now, now)
	assert.Error(t, err)

	err = CheckBookingLead(now.AddDate(0, 0, -1), now)
	assert.Error(t, err)
}

func TestDepartsOnOrBefore(t *testing.T) {
	now := time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC)

	// Calendar days, not 24h windows: a 6am departure tomorrow is still
	// a future day even from 10pm tonight.
	assert.False(t, DepartsOnOrBefore(time.Date(2026, 6, 2, 6, 0, 0, 0, time.UTC), now))
	assert.True(t, DepartsOnOrBefore(time.Date(2026, 6, 1, 23, 0, 0, 0, time.UTC), now))
	assert.True(t, DepartsOnOrBefore(time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC), now))
	assert.True(t, DepartsOnOrBefore(time.Date(2026, 5, 28, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, DepartsOnOrBefore(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), now))
}

func TestCheckTravelerEditLead(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, CheckTravelerEditLead(now.AddDate(0, 0, 4), now))

	err := CheckTravelerEditLead(now.AddDate(0, 0, 2), now)
	assert.Error(t, err)
	assert.Equal(t, types.ErrIneligibleState, types.KindOf(err))
}

func TestParseTravelerInput(t *testing.T) {
	email := "jane@example.com"
	in := &types.TravelerInput{
		FullName:    "Jane Doe",
		Gender:      "female",
		DateOfBirth: "1990-04-15",
		DocumentNo:  "P1234567",
		Email:       &email,
	}
	traveler, err := parseTravelerInput(in, 7)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), traveler.BookingID)
	assert.Equal(t, 1990, traveler.DateOfBirth.Year())

	in.DateOfBirth = "15/04/1990"
	_, err = parseTravelerInput(in, 7)
	assert.Error(t, err)
	assert.Equal(t, types.ErrIneligibleState, types.KindOf(err))
}
