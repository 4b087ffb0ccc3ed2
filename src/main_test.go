package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"tourops/src/db"
	"tourops/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock *sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = &mock
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthValidation() {
	router := setupRouter()
	guestAuthRoutes(router)

	s.Run("Should reject login with a malformed email", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"email": "not-an-email"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should register with an optional phone", func() {
		mock := *s.Mock
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		mock.ExpectCommit()

		w := httptest.NewRecorder()
		jbody := map[string]any{"name": "Jane Doe", "email": "jane@example.com", "phone": "+15550100"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		assert.Nil(s.T(), mock.ExpectationsWereMet())
	})

	s.Run("Should reject registration without a name", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"email": "someone@example.com"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	bookingHandlers(apiv1)

	s.Run("Should reject a booking without travelers", func() {
		w := httptest.NewRecorder()
		reqBody := types.CreateBookingRequestBody{
			TripID:   1,
			NoAdults: 2,
		}
		rbytes, err := json.Marshal(&reqBody)
		assert.Nil(s.T(), err)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)

		rbytes, err = io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject a traveler edit without a version", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{
			"travelers": []map[string]any{
				{
					"full_name":     "Jane Doe",
					"gender":        "female",
					"date_of_birth": "1990-04-15",
					"document_no":   "P1234567",
				},
			},
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/travelers", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingOwnership() {
	s.Run("Should allow the owner and staff roles only", func() {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Set("id", uint(7))
		ctx.Set("role", "customer")
		assert.True(s.T(), bookingAccessAllowed(ctx, 7))
		assert.False(s.T(), bookingAccessAllowed(ctx, 8))

		ctx.Set("role", "staff")
		assert.True(s.T(), bookingAccessAllowed(ctx, 8))
		ctx.Set("role", "admin")
		assert.True(s.T(), bookingAccessAllowed(ctx, 8))
	})

	s.Run("Should reject cancellation of another customer's booking", func() {
		router := setupRouter()
		apiv1 := apiv1Group(router)
		apiv1.Use(func(ctx *gin.Context) {
			ctx.Set("id", uint(99))
			ctx.Set("role", "customer")
		})
		bookingHandlers(apiv1)

		mock := *s.Mock
		mock.MatchExpectationsInOrder(false)
		mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
			WillReturnRows(sqlmock.
				NewRows([]string{"id", "trip_id", "user_id", "seats_booked", "total_price", "status", "version"}).
				AddRow(1, 1, 7, 2, 199.98, "pending", 1))
		for _, table := range []string{"booking_details", "invoices", "travelers", "trips", "users"} {
			mock.ExpectQuery(`SELECT (.+) FROM "` + table + `"`).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/cancel", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
		assert.Nil(s.T(), mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestTripValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	staffTripHandlers(apiv1)

	s.Run("Should reject a trip departing in the past", func() {
		w := httptest.NewRecorder()
		past := time.Now().AddDate(0, 0, -1)
		reqBody := types.CreateTripRequestBody{
			RouteID:       1,
			DepartureDate: past.Format("2006-01-02 15:04:05 -07:00"),
			ReturnDate:    past.AddDate(0, 0, 5).Format("2006-01-02 15:04:05 -07:00"),
			Price:         199.99,
			TotalSeats:    30,
		}
		rbytes, err := json.Marshal(&reqBody)
		assert.Nil(s.T(), err)
		req, _ := http.NewRequest("POST", "/api/v1/trips", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a trip returning before departure", func() {
		w := httptest.NewRecorder()
		departure := time.Now().AddDate(0, 0, 30)
		reqBody := types.CreateTripRequestBody{
			RouteID:       1,
			DepartureDate: departure.Format("2006-01-02 15:04:05 -07:00"),
			ReturnDate:    departure.AddDate(0, 0, -5).Format("2006-01-02 15:04:05 -07:00"),
			Price:         199.99,
			TotalSeats:    30,
		}
		rbytes, err := json.Marshal(&reqBody)
		assert.Nil(s.T(), err)
		req, _ := http.NewRequest("POST", "/api/v1/trips", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
