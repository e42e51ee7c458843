package utils

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stagelink/src/db"
	"stagelink/src/lib"
	"stagelink/src/models"
	"stagelink/src/types"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error { return nil })))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqldb}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func newTestDB(t *testing.T, name string) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	assert.NoError(t, err)
	sqlDB, err := gdb.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	assert.NoError(t, gdb.AutoMigrate(&models.Profile{}, &models.GroupMember{}, &models.Show{}, &models.Payment{}, &models.Ticket{}))
	return gdb
}

// failPaymentUpdates makes every UPDATE against the payments table error,
// leaving creates untouched.
func failPaymentUpdates(t *testing.T, gdb *gorm.DB) {
	err := gdb.Callback().Update().Before("gorm:update").Register("fail_payment_updates", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			tx.AddError(errors.New("connection reset"))
		}
	})
	assert.NoError(t, err)
}

func approvedTestShow() *models.Show {
	dt := time.Now().Add(24 * time.Hour)
	return &models.Show{
		ID:       uuid.New(),
		Title:    "Hamlet",
		Slug:     "hamlet",
		Price:    500,
		DateTime: &dt,
		Status:   types.SHOW_APPROVED,
	}
}

func TestGenerateAccessCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := GenerateAccessCode()
		assert.Len(t, code, 8)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90, "codes should be effectively unique")
}

func TestGenerateJWT(t *testing.T) {
	key := []byte("secret")
	profile := &models.Profile{
		UserID:   uuid.NewString(),
		Email:    "someone@example.com",
		Username: "someone",
		Role:     types.ROLE_MEMBER,
	}
	token, err := GenerateJWT(profile, key)
	assert.NoError(t, err)

	claims := &types.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	})
	assert.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, profile.UserID, claims.Subject)
	assert.Equal(t, profile.Email, claims.Email)
	assert.Equal(t, "member", claims.Role)
}

// A reservation that cannot be recorded must never reach the provider.
func TestCheckoutReservationFailsClosedOnWriteFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	defer db.NewDB(nil)

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	providerCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerCalls++
		w.Write([]byte(`{"data":{"id":"cs_should_never_happen","attributes":{}}}`))
	}))
	defer srv.Close()
	lib.NewPaymongoClient(&lib.PaymongoClient{
		SecretKey:  "sk_test",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	})
	defer lib.NewPaymongoClient(nil)

	_, _, err := CreateCheckoutReservation(&ReservationInput{
		Show:          approvedTestShow(),
		CustomerEmail: "guest@example.com",
		Method:        types.PAYMENT_METHOD_AUTOMATED,
	})
	assert.Error(t, err)
	var pe *types.PersistenceError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, providerCalls, "provider must not be called when the reservation write fails")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A session created upstream whose id cannot be recorded locally surfaces as
// a persistence failure, not a provider one. The rows written before the
// provider call stay put under the placeholder id for reconciliation.
func TestCheckoutBackfillFailureIsPersistenceError(t *testing.T) {
	gdb := newTestDB(t, "backfilltest")
	db.NewDB(gdb)
	defer db.NewDB(nil)
	failPaymentUpdates(t, gdb)

	providerCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"cs_backfill","attributes":{"checkout_url":"https://checkout.example/cs_backfill","status":"active"}}}`))
	}))
	defer srv.Close()
	lib.NewPaymongoClient(&lib.PaymongoClient{
		SecretKey:  "sk_test",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	})
	defer lib.NewPaymongoClient(nil)

	show := approvedTestShow()
	assert.NoError(t, gdb.Create(show).Error)

	_, _, err := CreateCheckoutReservation(&ReservationInput{
		Show:          show,
		CustomerEmail: "guest@example.com",
		Method:        types.PAYMENT_METHOD_AUTOMATED,
	})
	assert.Error(t, err)
	var pe *types.PersistenceError
	assert.ErrorAs(t, err, &pe)
	var ue *types.UpstreamProviderError
	assert.False(t, errors.As(err, &ue), "a back-fill failure is not a provider failure")
	assert.Equal(t, 1, providerCalls)

	var payment models.Payment
	assert.NoError(t, gdb.First(&payment).Error)
	assert.Equal(t, types.PAYMENT_INITIALIZED, payment.Status)
	assert.True(t, strings.HasPrefix(payment.CheckoutID, "tmp_"))
}

// Manual reservations are pending from the moment they are created; there is
// no follow-up write that could strand them outside the review queue.
func TestManualReservationCreatedPending(t *testing.T) {
	gdb := newTestDB(t, "manualtest")
	db.NewDB(gdb)
	defer db.NewDB(nil)
	failPaymentUpdates(t, gdb)

	show := approvedTestShow()
	assert.NoError(t, gdb.Create(show).Error)

	payment, ticket, err := CreateManualReservation(&ReservationInput{
		Show:          show,
		CustomerEmail: "guest@example.com",
		Method:        types.PAYMENT_METHOD_MANUAL,
	})
	assert.NoError(t, err)
	assert.Equal(t, types.PAYMENT_PENDING, payment.Status)
	assert.Equal(t, types.TICKET_PENDING, ticket.Status)

	var stored models.Payment
	assert.NoError(t, gdb.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, types.PAYMENT_PENDING, stored.Status)
}
