package utils

import (
	"testing"

	"tourops/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCreateNewRouteWithOptionalDescription(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "routes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	desc := "Scenic coastal loop with two overnight stops"
	id, err := CreateNewRoute(&types.CreateRouteRequestBody{
		Name:        "Coastal Loop",
		Description: &desc,
		Origin:      "Porto",
		Destination: "Lisbon",
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(3), id)
	assert.Nil(t, mock.ExpectationsWereMet())

	mock = newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "routes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	// Description stays optional.
	id, err = CreateNewRoute(&types.CreateRouteRequestBody{
		Name:        "Day Trip",
		Origin:      "Porto",
		Destination: "Braga",
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(4), id)
	assert.Nil(t, mock.ExpectationsWereMet())
}
