package controller

import (
	"io"
	"net/http"

	"deepchat-backend/logic"
	"deepchat-backend/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// BillingController exposes subscription state and the Stripe integration.
// Checkout itself happens on Stripe's hosted page; this controller only
// creates the session and ingests webhook events.
type BillingController struct {
	billingLogic  *logic.BillingLogic
	webhookSecret string
	priceMonthly  string
	priceYearly   string
	successURL    string
	cancelURL     string
	logger        *logrus.Logger
}

type BillingConfig struct {
	WebhookSecret string
	PriceMonthly  string
	PriceYearly   string
	SuccessURL    string
	CancelURL     string
}

func NewBillingController(billingLogic *logic.BillingLogic, cfg BillingConfig, logger *logrus.Logger) *BillingController {
	return &BillingController{
		billingLogic:  billingLogic,
		webhookSecret: cfg.WebhookSecret,
		priceMonthly:  cfg.PriceMonthly,
		priceYearly:   cfg.PriceYearly,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		logger:        logger,
	}
}

// GetSubscription handles GET /billing/subscription
func (c *BillingController) GetSubscription(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	if userID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "user identity unavailable"})
		return
	}

	status, err := c.billingLogic.GetSubscription(userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, status)
}

// CreateCheckout handles POST /billing/checkout
func (c *BillingController) CreateCheckout(ctx *gin.Context) {
	type Request struct {
		Plan string `json:"plan" binding:"required"` // "monthly" or "yearly"
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price := c.priceMonthly
	if req.Plan == "yearly" {
		price = c.priceYearly
	}
	userID := middleware.UserID(ctx)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
	}
	sess, err := session.New(params)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create checkout session")
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// Webhook handles POST /billing/webhook
func (c *BillingController) Webhook(ctx *gin.Context) {
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), c.webhookSecret)
	if err != nil {
		c.logger.WithError(err).Warn("Stripe webhook signature verification failed")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := c.billingLogic.ApplyStripeEvent(&event); err != nil {
		c.logger.WithError(err).Error("Failed to apply stripe event")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
