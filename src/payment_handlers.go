package main

import (
	"io"
	"log"
	"net/http"
	"os"

	"tourops/src/types"
	"tourops/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
)

// stripeWebhookRoute is unauthenticated; the signature check is the auth.
// Outcomes funnel through ApplyPaymentOutcome, which dedupes replays, so
// this endpoint can be retried by the gateway freely.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			raw := string(event.Data.Raw)
			orderRef := gjson.Get(raw, "client_reference_id").String()
			if orderRef == "" {
				log.Printf("[Stripe] Session %s carries no order ref, skipping\n", gjson.Get(raw, "id").String())
				break
			}
			if gjson.Get(raw, "payment_status").String() != "paid" {
				// Completed with deferred payment methods; the
				// async_payment_succeeded event settles it later.
				break
			}
			body := types.JSONB{"event": event.Type, "session": gjson.Get(raw, "id").String()}
			if err := utils.ApplyPaymentOutcome(orderRef, types.PAYMENT_EVENT_PAID, &body); err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
		case "checkout.session.async_payment_succeeded":
			raw := string(event.Data.Raw)
			orderRef := gjson.Get(raw, "client_reference_id").String()
			if orderRef == "" {
				break
			}
			body := types.JSONB{"event": event.Type, "session": gjson.Get(raw, "id").String()}
			if err := utils.ApplyPaymentOutcome(orderRef, types.PAYMENT_EVENT_PAID, &body); err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
		case "checkout.session.expired", "checkout.session.async_payment_failed":
			raw := string(event.Data.Raw)
			orderRef := gjson.Get(raw, "client_reference_id").String()
			if orderRef == "" {
				break
			}
			body := types.JSONB{"event": event.Type, "session": gjson.Get(raw, "id").String()}
			if err := utils.ApplyPaymentOutcome(orderRef, types.PAYMENT_EVENT_CANCELED, &body); err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
		default:
			log.Printf("[Stripe] Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings/:id/checkout", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			email := ctx.GetString("email")
			handle, err := utils.CreateCheckoutForBooking(params.ID, "", email)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": handle})
		}).
		GET("/payments/:ref", func(ctx *gin.Context) {
			var params struct {
				Ref string `uri:"ref" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			handle, err := utils.GetCheckoutHandle(params.Ref)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": handle})
		}).
		GET("/payments/:ref/verify", func(ctx *gin.Context) {
			var params struct {
				Ref string `uri:"ref" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status, err := utils.VerifyPayment(params.Ref)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": status})
		})
	return g
}
