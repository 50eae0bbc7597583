package logic

import (
	"encoding/json"
	"fmt"
	"time"

	"deepchat-backend/dao"
	"deepchat-backend/models"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
)

// SubscriptionStatus is the read model returned to the client.
type SubscriptionStatus struct {
	Plan             string     `json:"plan"`
	Status           string     `json:"status"`
	TrialEndsAt      *time.Time `json:"trialEndsAt,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

// BillingLogic reads subscription state and applies Stripe webhook events
// to the user record.
type BillingLogic struct {
	userDAO *dao.UserDAO
	logger  *logrus.Logger
}

func NewBillingLogic(userDAO *dao.UserDAO, logger *logrus.Logger) *BillingLogic {
	return &BillingLogic{userDAO: userDAO, logger: logger}
}

// GetSubscription returns the stored subscription state for a user. Users
// with no row yet read as inactive.
func (l *BillingLogic) GetSubscription(userID string) (*SubscriptionStatus, error) {
	user, err := l.userDAO.GetUser(userID)
	if err == gorm.ErrRecordNotFound {
		return &SubscriptionStatus{Status: models.SubscriptionInactive}, nil
	}
	if err != nil {
		return nil, err
	}
	status := user.Status
	if status == "" {
		status = models.SubscriptionInactive
	}
	return &SubscriptionStatus{
		Plan:             user.Plan,
		Status:           status,
		TrialEndsAt:      user.TrialEndsAt,
		CurrentPeriodEnd: user.CurrentPeriodEnd,
	}, nil
}

// ApplyStripeEvent updates the user record from a verified webhook event.
// Unhandled event types are ignored.
func (l *BillingLogic) ApplyStripeEvent(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %v", err)
		}
		userID := session.ClientReferenceID
		if userID == "" {
			l.logger.Warn("Checkout session without client reference id")
			return nil
		}
		fields := map[string]interface{}{
			"status": models.SubscriptionActive,
		}
		if session.Customer != nil {
			fields["stripe_customer_id"] = session.Customer.ID
		}
		if session.Subscription != nil {
			fields["subscription_id"] = session.Subscription.ID
		}
		return l.userDAO.UpdateSubscription(userID, fields)

	case "customer.subscription.updated":
		sub, user, err := l.subscriptionUser(event)
		if err != nil || user == nil {
			return err
		}
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
		status := models.SubscriptionInactive
		switch sub.Status {
		case stripe.SubscriptionStatusActive:
			status = models.SubscriptionActive
		case stripe.SubscriptionStatusTrialing:
			status = models.SubscriptionTrial
		}
		fields := map[string]interface{}{
			"status":             status,
			"subscription_id":    sub.ID,
			"current_period_end": &periodEnd,
		}
		if sub.TrialEnd > 0 {
			trialEnd := time.Unix(sub.TrialEnd, 0)
			fields["trial_ends_at"] = &trialEnd
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			fields["plan"] = sub.Items.Data[0].Price.Nickname
		}
		return l.userDAO.UpdateSubscription(user.ID, fields)

	case "customer.subscription.deleted":
		_, user, err := l.subscriptionUser(event)
		if err != nil || user == nil {
			return err
		}
		return l.userDAO.UpdateSubscription(user.ID, map[string]interface{}{
			"status":          models.SubscriptionInactive,
			"subscription_id": "",
		})
	}

	return nil
}

func (l *BillingLogic) subscriptionUser(event *stripe.Event) (*stripe.Subscription, *models.User, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, nil, fmt.Errorf("failed to parse subscription: %v", err)
	}
	if sub.Customer == nil {
		return &sub, nil, nil
	}
	user, err := l.userDAO.GetUserByStripeCustomer(sub.Customer.ID)
	if err == gorm.ErrRecordNotFound {
		l.logger.WithField("customer", sub.Customer.ID).Warn("Stripe event for unknown customer")
		return &sub, nil, nil
	}
	if err != nil {
		return &sub, nil, err
	}
	return &sub, user, nil
}
