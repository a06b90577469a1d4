package models

import "time"

// Subscription statuses stored in the subscriptions table.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionExpired  = "expired"
)

// Subscription is one payment-platform subscription row, keyed by buyer
// e-mail and refreshed by webhook events.
type Subscription struct {
	ID                    int       `json:"id"`
	Email                 string    `json:"email"`
	Status                string    `json:"status"`
	SubscriptionStatus    string    `json:"subscription_status,omitempty"`
	HotmartTransactionID  string    `json:"hotmart_transaction_id,omitempty"`
	HotmartSubscriberCode string    `json:"hotmart_subscriber_code,omitempty"`
	HotmartPlanID         string    `json:"hotmart_plan_id,omitempty"`
	HotmartPlanName       string    `json:"hotmart_plan_name,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// SubscriptionCheckRequest carries the e-mail to verify.
type SubscriptionCheckRequest struct {
	Email string `json:"email" query:"email"`
}
