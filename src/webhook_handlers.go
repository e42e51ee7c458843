package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"stagelink/src/common"
	"stagelink/src/db"
	"stagelink/src/lib"
	"stagelink/src/types"
)

func paymongoWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/paymongo", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		// Signature check comes before any parsing or database access.
		verifier := lib.GetWebhookVerifier()
		if err := verifier.Verify(ctx.GetHeader(lib.WebhookSignatureHeader), payload); err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusUnauthorized)
			return
		}
		var event lib.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("Error parsing webhook payload: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[PaymongoEvent] %s\n", event.Type())

		var outcome types.PaymentStatus
		switch event.Type() {
		case lib.EventCheckoutPaymentPaid:
			outcome = types.PAYMENT_PAID
		case lib.EventCheckoutPaymentFailed:
			outcome = types.PAYMENT_FAILED
		default:
			// Unknown event types are acknowledged so the provider stops
			// retrying them.
			ctx.JSON(http.StatusOK, gin.H{"message": "ignored"})
			return
		}

		checkoutID := event.CheckoutID()
		if checkoutID == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "event has no checkout session id"})
			return
		}
		gdb := db.GetDb()
		payment, err := common.FindPaymentByCheckoutID(gdb, checkoutID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				// Returning an error status keeps the provider retrying. The
				// checkout-id back-fill may simply not have committed yet.
				log.Printf("No payment for checkout [%s]; requesting retry\n", checkoutID)
				ctx.Status(http.StatusNotFound)
				return
			}
			log.Printf("Error resolving checkout [%s]: %s\n", checkoutID, err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}

		ticket, err := common.SettlePayment(gdb, payment.ID, outcome)
		if err != nil {
			if errors.Is(err, common.ErrAlreadySettled) {
				ctx.JSON(http.StatusOK, gin.H{"message": "already settled"})
				return
			}
			log.Printf("Error settling payment [%s]: %s\n", payment.ID, err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		if ticket != nil {
			notifySettlement(ticket, outcome)
		}
		ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return apiv1
}
