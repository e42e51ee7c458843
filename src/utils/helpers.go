package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"stagelink/src/common"
	"stagelink/src/config"
	"stagelink/src/db"
	"stagelink/src/lib"
	"stagelink/src/models"
	"stagelink/src/types"
)

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func IsProd() bool {
	return os.Getenv("GIN_MODE") == "release"
}

// Access codes are short enough to read over the phone. The alphabet drops
// 0/O and 1/I so a code scrawled on a will-call list stays unambiguous.
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const accessCodeLength = 8

func GenerateAccessCode() string {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = accessCodeAlphabet[int(b)%len(accessCodeAlphabet)]
	}
	return string(buf)
}

func GenerateJWT(profile *models.Profile, key []byte) (string, error) {
	claims := types.Claims{
		Email: profile.Email,
		Role:  string(profile.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

func CreateNewShow(ctx *gin.Context, params *types.CreateShowRequestBody, producerID uuid.UUID) (*models.Show, error) {
	dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, params.DateTime)
	if err != nil {
		log.Printf("Error parsing date_time: %s\n", err.Error())
		return nil, err
	}
	show := models.Show{
		Title:          params.Title,
		Slug:           slug.Make(params.Title),
		Description:    params.Description,
		Venue:          params.Venue,
		DateTime:       &dateTime,
		Price:          params.Price,
		ReservationFee: params.ReservationFee,
		ProducerID:     producerID,
		Status:         types.SHOW_PENDING,
	}
	gdb := db.GetDb()
	if err := gdb.Create(&show).Error; err != nil {
		return nil, err
	}
	return &show, nil
}

// ReservationInput carries who is reserving. UserID is nil for guest
// checkouts where only an email and a display name are known.
type ReservationInput struct {
	Show          *models.Show
	UserID        *uuid.UUID
	CustomerEmail string
	CustomerName  string
	Method        types.PaymentMethod
	Description   string
}

// createReservationRows writes the payment and ticket before anything is
// sent to the provider, under a placeholder checkout id. Whatever happens
// upstream, money can never move against a session we have no row for.
// Manual reservations have no provider step, so they start in pending and
// are visible to the review queue from their first write.
func createReservationRows(gdb *gorm.DB, in *ReservationInput) (*models.Payment, *models.Ticket, error) {
	amount := common.ReservationFeeCents(in.Show.Price, in.Show.ReservationFee, in.Show.ProducerNiche())
	status := types.PAYMENT_INITIALIZED
	if in.Method == types.PAYMENT_METHOD_MANUAL {
		status = types.PAYMENT_PENDING
	}
	payment := models.Payment{
		UserID:        in.UserID,
		Amount:        amount,
		Status:        status,
		CheckoutID:    fmt.Sprintf("tmp_%s", uuid.NewString()),
		PaymentMethod: in.Method,
		Description:   in.Description,
		CustomerEmail: optString(in.CustomerEmail),
		CustomerName:  optString(in.CustomerName),
	}
	ticket := models.Ticket{
		ShowID:        in.Show.ID,
		UserID:        in.UserID,
		Status:        types.TICKET_PENDING,
		AccessCode:    GenerateAccessCode(),
		CustomerEmail: optString(in.CustomerEmail),
		CustomerName:  optString(in.CustomerName),
	}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		ticket.PaymentID = payment.ID
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, &types.PersistenceError{Op: "create reservation", Err: err}
	}
	return &payment, &ticket, nil
}

// CreateCheckoutReservation runs the full automated flow: reservation rows
// first, then the provider session, then the checkout id back-fill. A
// provider failure settles the reservation as failed; a back-fill failure is
// surfaced as a persistence error because the session exists upstream but
// cannot be reconciled by id.
func CreateCheckoutReservation(in *ReservationInput) (*models.Payment, *lib.CheckoutSession, error) {
	gdb := db.GetDb()
	payment, _, err := createReservationRows(gdb, in)
	if err != nil {
		return nil, nil, err
	}

	// The success page polls by internal payment id; the provider's session
	// id is never exposed to the browser.
	metadata := map[string]string{
		"payment_id": payment.ID.String(),
		"show_id":    in.Show.ID.String(),
	}
	if in.UserID != nil {
		metadata["user_id"] = in.UserID.String()
	} else {
		metadata["guest"] = "true"
	}

	pm := lib.GetPaymongoClient()
	session, err := pm.CreateCheckoutSession(context.Background(), &lib.CheckoutSessionParams{
		LineItems: []lib.CheckoutLineItem{
			{
				Name:     fmt.Sprintf("Reservation: %s", in.Show.Title),
				Amount:   payment.Amount,
				Currency: "PHP",
				Quantity: 1,
			},
		},
		PaymentMethodTypes: []string{"gcash", "paymaya", "card"},
		SendEmailReceipt:   true,
		ShowDescription:    true,
		ShowLineItems:      true,
		SuccessURL:         fmt.Sprintf("%s/shows/%s?payment_id=%s", config.AppHost(), in.Show.Slug, payment.ID),
		CancelURL:          fmt.Sprintf("%s/shows/%s?payment=cancelled", config.AppHost(), in.Show.Slug),
		Description:        fmt.Sprintf("StageLink reservation for %s", in.Show.Title),
		Metadata:           metadata,
	})
	if err != nil {
		log.Printf("Error creating checkout session for payment [%s]: %s\n", payment.ID, err.Error())
		if _, serr := common.SettlePayment(gdb, payment.ID, types.PAYMENT_FAILED); serr != nil && !errors.Is(serr, common.ErrAlreadySettled) {
			log.Printf("Error settling failed reservation [%s]: %s\n", payment.ID, serr.Error())
		}
		return nil, nil, err
	}

	err = gdb.Model(payment).Updates(map[string]any{
		"checkout_id": session.ID,
		"status":      types.PAYMENT_PENDING,
	}).Error
	if err != nil {
		log.Printf("CRITICAL: payment [%s] could not record checkout [%s]: %s\n", payment.ID, session.ID, err.Error())
		return nil, nil, &types.PersistenceError{Op: "record checkout id", Err: err}
	}
	payment.CheckoutID = session.ID
	payment.Status = types.PAYMENT_PENDING
	return payment, session, nil
}

// CreateManualReservation records a pay-later reservation. No provider call
// is made; the payment sits in pending until an admin reviews the proof.
func CreateManualReservation(in *ReservationInput) (*models.Payment, *models.Ticket, error) {
	return createReservationRows(db.GetDb(), in)
}

// ResolveProfile maps a request context to a profile when one exists. Guest
// requests return nil without error.
func ResolveProfile(ctx *gin.Context) *models.Profile {
	profileID := ctx.GetString("profile_id")
	if profileID == "" {
		return nil
	}
	id, err := uuid.Parse(profileID)
	if err != nil {
		return nil
	}
	var profile models.Profile
	if err := db.GetDb().First(&profile, "id = ?", id).Error; err != nil {
		return nil
	}
	return &profile
}
