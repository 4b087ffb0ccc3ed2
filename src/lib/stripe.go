package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/stripe/stripe-go/v82"
	"tourops/src/types"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_CANCELED PaymentStatus = "canceled"
)

type PaymentLinkInput struct {
	Amount      float64
	Currency    string
	OrderRef    string
	Description string
	BuyerName   string
	BuyerEmail  string
}

type PaymentLink struct {
	OrderRef    string
	SessionID   string
	CheckoutURL string
}

// PaymentGateway is the contract the booking core has with the external
// payment provider. Only the link/status/cancel surface matters here; the
// provider's own accounting is out of scope.
type PaymentGateway interface {
	CreateLink(ctx context.Context, input *PaymentLinkInput) (*PaymentLink, error)
	Get(ctx context.Context, orderRef string) (PaymentStatus, error)
	Cancel(ctx context.Context, orderRef string, reason string) error
}

var paymentGateway PaymentGateway

func GetPaymentGateway() PaymentGateway {
	if paymentGateway != nil {
		return paymentGateway
	}
	paymentGateway = &stripeGateway{}
	return paymentGateway
}

// NewPaymentGateway Replace gateway instance with custom implementation
func NewPaymentGateway(g PaymentGateway) PaymentGateway {
	paymentGateway = g
	return paymentGateway
}

type stripeGateway struct{}

func sessionCacheKey(orderRef string) string {
	return fmt.Sprintf("payment:%s:session", orderRef)
}

func (g *stripeGateway) CreateLink(ctx context.Context, input *PaymentLinkInput) (*PaymentLink, error) {
	sc := GetStripeClient()
	successUrl := fmt.Sprintf("%s/checkout/callback/success", os.Getenv("APP_HOST"))
	unitAmount := int64(input.Amount * 100)
	createParams := &stripe.CheckoutSessionCreateParams{
		SuccessURL:        stripe.String(successUrl),
		UIMode:            stripe.String("hosted"),
		Mode:              stripe.String("payment"),
		ClientReferenceID: stripe.String(input.OrderRef),
		CustomerEmail:     stripe.String(input.BuyerEmail),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(input.Currency),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(input.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"order_ref": input.OrderRef,
		},
	}
	checkoutSession, err := sc.V1CheckoutSessions.Create(ctx, createParams)
	if err != nil {
		log.Printf("[stripe] CreateLink failed for %s: %s\n", input.OrderRef, err.Error())
		return nil, types.NewAppError(types.ErrExternalGateway, "payment gateway rejected the request")
	}
	// The gateway is queried by our order ref later; keep the session id
	// reachable for Get/Cancel.
	rd := GetRedisClient()
	if rd != nil {
		if _, err := rd.SetEx(ctx, sessionCacheKey(input.OrderRef), checkoutSession.ID, 24*time.Hour).Result(); err != nil {
			log.Printf("[stripe] Error caching session id for %s: %s\n", input.OrderRef, err.Error())
		}
	}
	return &PaymentLink{
		OrderRef:    input.OrderRef,
		SessionID:   checkoutSession.ID,
		CheckoutURL: checkoutSession.URL,
	}, nil
}

func (g *stripeGateway) Get(ctx context.Context, orderRef string) (PaymentStatus, error) {
	rd := GetRedisClient()
	sessionId, err := rd.Get(ctx, sessionCacheKey(orderRef)).Result()
	if err != nil {
		log.Printf("[stripe] No session mapped for order ref %s: %s\n", orderRef, err.Error())
		return "", types.NewAppError(types.ErrExternalGateway, "unknown order reference %s", orderRef)
	}
	sc := GetStripeClient()
	session, err := sc.V1CheckoutSessions.Retrieve(ctx, sessionId, nil)
	if err != nil {
		log.Printf("[stripe] Error retrieving session %s: %s\n", sessionId, err.Error())
		return "", types.NewAppError(types.ErrExternalGateway, "payment gateway lookup failed")
	}
	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return PAYMENT_PAID, nil
	case session.Status == stripe.CheckoutSessionStatusExpired:
		return PAYMENT_CANCELED, nil
	default:
		return PAYMENT_PENDING, nil
	}
}

func (g *stripeGateway) Cancel(ctx context.Context, orderRef string, reason string) error {
	rd := GetRedisClient()
	sessionId, err := rd.Get(ctx, sessionCacheKey(orderRef)).Result()
	if err != nil {
		return types.NewAppError(types.ErrExternalGateway, "unknown order reference %s", orderRef)
	}
	sc := GetStripeClient()
	if _, err := sc.V1CheckoutSessions.Expire(ctx, sessionId, &stripe.CheckoutSessionExpireParams{}); err != nil {
		log.Printf("[stripe] Error expiring session %s (%s): %s\n", sessionId, reason, err.Error())
		return types.NewAppError(types.ErrExternalGateway, "payment gateway cancel failed")
	}
	return nil
}
