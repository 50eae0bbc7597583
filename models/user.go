package models

import "time"

// Subscription statuses as stored on the user record.
const (
	SubscriptionTrial    = "trial"
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// User mirrors the account record owned by the external auth backend, plus
// the billing state Stripe webhooks keep up to date.
type User struct {
	ID               string     `gorm:"primaryKey" json:"id"` // external user identifier
	Email            string     `gorm:"uniqueIndex" json:"email"`
	Plan             string     `json:"plan"`
	Status           string     `gorm:"default:inactive" json:"status"` // trial/active/inactive
	StripeCustomerID string     `gorm:"index" json:"-"`
	SubscriptionID   string     `json:"-"`
	TrialEndsAt      *time.Time `json:"trialEndsAt,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
