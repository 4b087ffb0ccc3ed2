package utils

import (
	"testing"
	"time"

	"tourops/src/db"
	"tourops/src/models"
	"tourops/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	return mock
}

func tripRows(totalSeats uint, bookedSeats uint, departure time.Time) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "route_id", "departure_date", "return_date", "price", "total_seats", "booked_seats", "status", "created_by"}).
		AddRow(1, 1, departure, departure.AddDate(0, 0, 5), 100.0, totalSeats, bookedSeats, "scheduled", 1)
}

const (
	selectTripForUpdate = `SELECT (.+) FROM "trips"(.+)FOR UPDATE`
	updateTripSeats     = `UPDATE "trips" SET "booked_seats"`
)

func TestReserveSeatsLocksRowBeforeUpdate(t *testing.T) {
	mock := newMockDB(t)
	now := time.Now()
	departure := now.AddDate(0, 0, 10)

	// Ordered expectations: the FOR UPDATE select must precede the
	// counter update, both inside one transaction.
	mock.ExpectBegin()
	mock.ExpectQuery(selectTripForUpdate).WillReturnRows(tripRows(30, 10, departure))
	mock.ExpectExec(updateTripSeats).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		trip, err := ReserveSeats(tx, 1, 2, now)
		if err != nil {
			return err
		}
		assert.Equal(t, uint(12), trip.BookedSeats)
		return nil
	})
	assert.NoError(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsCapacityErrorRollsBack(t *testing.T) {
	mock := newMockDB(t)
	now := time.Now()
	departure := now.AddDate(0, 0, 10)

	// A full trip never reaches the counter update.
	mock.ExpectBegin()
	mock.ExpectQuery(selectTripForUpdate).WillReturnRows(tripRows(30, 30, departure))
	mock.ExpectRollback()

	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		_, err := ReserveSeats(tx, 1, 1, now)
		return err
	})
	assert.Error(t, err)
	assert.Equal(t, types.ErrCapacityExceeded, types.KindOf(err))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateBookingTxWritesAllRowsTogether(t *testing.T) {
	mock := newMockDB(t)
	now := time.Now()
	departure := now.AddDate(0, 0, 10)

	mock.ExpectBegin()
	mock.ExpectQuery(selectTripForUpdate).WillReturnRows(tripRows(30, 10, departure))
	mock.ExpectExec(updateTripSeats).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version"}).AddRow(11, 1))
	mock.ExpectQuery(`INSERT INTO "booking_details"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectQuery(`INSERT INTO "travelers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectQuery(`INSERT INTO "travelers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(32))
	mock.ExpectQuery(`INSERT INTO "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectCommit()

	params := &types.CreateBookingRequestBody{
		TripID:   1,
		NoAdults: 2,
		Travelers: []types.TravelerInput{
			{FullName: "Jane Doe", Gender: "female", DateOfBirth: "1990-04-15", DocumentNo: "P1234567"},
			{FullName: "John Doe", Gender: "male", DateOfBirth: "1988-09-02", DocumentNo: "P7654321"},
		},
	}
	var booking *models.Booking
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		b, err := createBookingTx(tx, 7, params, nil, now)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(11), booking.ID)
	assert.Equal(t, uint(2), booking.SeatsBooked)
	assert.Equal(t, 200.0, booking.TotalPrice)
	assert.Equal(t, types.INVOICE_UNPAID, booking.Invoice.PaymentStatus)
	assert.Equal(t, 200.0, booking.Invoice.TotalAmount)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateBookingTxRejectsRosterMismatch(t *testing.T) {
	mock := newMockDB(t)

	// The roster check fails before any statement is issued.
	mock.ExpectBegin()
	mock.ExpectRollback()

	params := &types.CreateBookingRequestBody{
		TripID:   1,
		NoAdults: 2,
		Travelers: []types.TravelerInput{
			{FullName: "Jane Doe", Gender: "female", DateOfBirth: "1990-04-15", DocumentNo: "P1234567"},
		},
	}
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		_, err := createBookingTx(tx, 7, params, nil, time.Now())
		return err
	})
	assert.Error(t, err)
	assert.Equal(t, types.ErrIneligibleState, types.KindOf(err))
	assert.Nil(t, mock.ExpectationsWereMet())
}
