package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stagelink/src/common"
	"stagelink/src/db"
	"stagelink/src/lib"
	awslib "stagelink/src/lib/aws"
	"stagelink/src/lib/mailer"
	"stagelink/src/models"
	"stagelink/src/types"
	"stagelink/src/utils"
)

// resolveActor maps a reservation request to the acting profile. A known
// bearer token wins; otherwise an explicit user_id is looked up. Unknown ids
// fall back to a guest reservation rather than failing, so a stale session
// on the storefront never blocks a sale.
func resolveActor(ctx *gin.Context, bodyUserID *string, guestEmail, guestName *string) (*uuid.UUID, string, string) {
	if profile := utils.ResolveProfile(ctx); profile != nil {
		return &profile.ID, profile.Email, profile.Username
	}
	if bodyUserID != nil {
		var profile models.Profile
		if err := db.GetDb().First(&profile, "id = ?", *bodyUserID).Error; err == nil {
			return &profile.ID, profile.Email, profile.Username
		}
		log.Printf("Unknown user [%s] on reservation; continuing as guest\n", *bodyUserID)
	}
	var email, name string
	if guestEmail != nil {
		email = *guestEmail
	}
	if guestName != nil {
		name = *guestName
	}
	return nil, email, name
}

func loadBookableShow(showID string) (*models.Show, error) {
	var show models.Show
	db := db.GetDb()
	if err := db.
		Preload("Producer").
		First(&show, "id = ?", showID).Error; err != nil {
		if errors.Is(gorm.ErrRecordNotFound, err) {
			return nil, types.ErrNotFound
		}
		log.Printf("Error retrieving Show [%s]: %s\n", showID, err.Error())
		return nil, err
	}
	if !show.Bookable() {
		return nil, types.ErrShowUnavailable
	}
	return &show, nil
}

func respondShowError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		ctx.Status(http.StatusNotFound)
	case errors.Is(err, types.ErrShowUnavailable):
		ctx.JSON(http.StatusConflict, gin.H{"error": "show is not open for reservations"})
	default:
		ctx.Status(http.StatusBadRequest)
	}
}

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/checkout", func(ctx *gin.Context) {
			var body types.CreateCheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			show, err := loadBookableShow(body.ShowID)
			if err != nil {
				respondShowError(ctx, err)
				return
			}
			userID, email, name := resolveActor(ctx, body.UserID, body.GuestEmail, body.GuestName)
			payment, session, err := utils.CreateCheckoutReservation(&utils.ReservationInput{
				Show:          show,
				UserID:        userID,
				CustomerEmail: email,
				CustomerName:  name,
				Method:        types.PAYMENT_METHOD_AUTOMATED,
				Description:   fmt.Sprintf("Reservation for %s", show.Title),
			})
			if err != nil {
				log.Printf("error creating checkout: %s\n", err.Error())
				var pe *types.PersistenceError
				var ue *types.UpstreamProviderError
				switch {
				case errors.As(err, &pe):
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not record reservation"})
				case errors.As(err, &ue):
					ctx.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
				default:
					ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"payment_id":   payment.ID,
				"checkout_url": session.CheckoutURL,
			})
		}).
		POST("/payments/manual", func(ctx *gin.Context) {
			var body types.CreateManualPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			show, err := loadBookableShow(body.ShowID)
			if err != nil {
				respondShowError(ctx, err)
				return
			}
			userID, email, name := resolveActor(ctx, body.UserID, body.GuestEmail, body.GuestName)
			payment, _, err := utils.CreateManualReservation(&utils.ReservationInput{
				Show:          show,
				UserID:        userID,
				CustomerEmail: email,
				CustomerName:  name,
				Method:        types.PAYMENT_METHOD_MANUAL,
				Description:   fmt.Sprintf("Manual reservation for %s", show.Title),
			})
			if err != nil {
				log.Printf("error creating manual payment: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not record reservation"})
				return
			}
			gdb := db.GetDb()
			if err := gdb.Model(payment).Update("proof_of_payment_url", body.ProofURL).Error; err != nil {
				log.Printf("error saving proof for payment [%s]: %s\n", payment.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not record proof of payment"})
				return
			}
			go mailer.SendAdminReviewRequest(show.Title, name, email, body.ProofURL, float64(payment.Amount)/100)
			ctx.JSON(http.StatusCreated, gin.H{
				"payment_id": payment.ID,
				"status":     types.PAYMENT_PENDING,
			})
		}).
		POST("/payments/manual/proof", func(ctx *gin.Context) {
			file, err := ctx.FormFile("proof")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "proof file is required"})
				return
			}
			if file.Size > 10<<20 {
				ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "proof must be under 10MB"})
				return
			}
			src, err := file.Open()
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			defer src.Close()
			key := fmt.Sprintf("proofs/%s_%s", uuid.NewString(), file.Filename)
			url, err := awslib.S3UploadProof(key, src, file.Header.Get("Content-Type"))
			if err != nil {
				log.Printf("Error uploading proof to S3 bucket: %s\n", err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"url": url})
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var payment models.Payment
			if err := gdb.First(&payment, "id = ?", params.ID).Error; err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			status := verifyPaymentStatus(ctx, gdb, &payment)
			ctx.JSON(http.StatusOK, gin.H{
				"id":     payment.ID,
				"status": status,
			})
		})
	return g
}

// verifyPaymentStatus returns the freshest status the poller can know. Open
// automated payments are re-checked against the provider behind a short
// cache so the storefront can poll without hammering the provider API.
func verifyPaymentStatus(ctx context.Context, gdb *gorm.DB, payment *models.Payment) types.PaymentStatus {
	if payment.Status.Terminal() || payment.PaymentMethod != types.PAYMENT_METHOD_AUTOMATED {
		return payment.Status
	}
	cacheKey := fmt.Sprintf("payment_status_%s", payment.ID)
	rd := lib.GetRedisClient()
	if rd != nil {
		if cached, err := rd.Get(ctx, cacheKey).Result(); err == nil {
			return types.PaymentStatus(cached)
		} else if !errors.Is(redis.Nil, err) {
			log.Printf("Error reading from cache: %s\n", err.Error())
		}
	}

	session, err := lib.GetPaymongoClient().RetrieveCheckoutSession(ctx, payment.CheckoutID)
	if err != nil {
		log.Printf("Error verifying payment [%s] upstream: %s\n", payment.ID, err.Error())
		return payment.Status
	}
	status := payment.Status
	if session.SessionPaid() {
		ticket, err := common.SettlePayment(gdb, payment.ID, types.PAYMENT_PAID)
		if err != nil && !errors.Is(err, common.ErrAlreadySettled) {
			log.Printf("Error settling verified payment [%s]: %s\n", payment.ID, err.Error())
			return payment.Status
		}
		if err == nil {
			notifySettlement(ticket, types.PAYMENT_PAID)
		}
		status = types.PAYMENT_PAID
	}
	if rd != nil {
		rd.SetEx(ctx, cacheKey, string(status), 30*time.Second)
	}
	return status
}

func paymentAdminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/payments/review", func(ctx *gin.Context) {
			var payments []models.Payment
			db := db.GetDb()
			if err := db.
				Preload("Ticket").
				Preload("Ticket.Show").
				Where("status = ? AND payment_method = ?", types.PAYMENT_PENDING, types.PAYMENT_METHOD_MANUAL).
				Order("created_at asc").
				Find(&payments).Error; err != nil {
				log.Printf("Error retrieving Payments: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments})
		}).
		POST("/payments/review", func(ctx *gin.Context) {
			var body types.ReviewPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			paymentID, _ := uuid.Parse(body.PaymentID)
			outcome := types.PAYMENT_PAID
			if body.Action == "reject" {
				outcome = types.PAYMENT_FAILED
			}
			gdb := db.GetDb()
			ticket, err := common.SettlePayment(gdb, paymentID, outcome)
			if err != nil {
				if errors.Is(err, common.ErrAlreadySettled) {
					ctx.JSON(http.StatusOK, gin.H{"id": paymentID, "message": "payment already settled"})
					return
				}
				if errors.Is(err, types.ErrNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				log.Printf("Error reviewing payment [%s]: %s\n", paymentID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if ticket != nil {
				notifySettlement(ticket, outcome)
			}
			ctx.JSON(http.StatusOK, gin.H{"id": paymentID, "status": outcome})
		})
	return g
}

// notifySettlement fires the attendee email for a settled reservation.
// Dispatch goes through package vars so tests can observe outbound mail.
var sendTicketConfirmation = func(to, name, showTitle, accessCode string, showDate *time.Time) {
	go mailer.SendTicketConfirmation(to, name, showTitle, accessCode, showDate)
}

var sendPaymentRejected = func(to, name, showTitle string) {
	go mailer.SendPaymentRejected(to, name, showTitle)
}

func notifySettlement(ticket *models.Ticket, outcome types.PaymentStatus) {
	if ticket == nil {
		return
	}
	email := ticket.ContactEmail()
	if email == "" {
		return
	}
	if outcome == types.PAYMENT_PAID {
		sendTicketConfirmation(email, ticket.Attendee(), ticket.Show.Title, ticket.AccessCode, ticket.Show.DateTime)
		return
	}
	sendPaymentRejected(email, ticket.Attendee(), ticket.Show.Title)
}
