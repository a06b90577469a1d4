package hotmart

import "time"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Subscription mirrors the payments API subscription item.
type Subscription struct {
	SubscriberCode  string    `json:"subscriber_code"`
	Status          string    `json:"status"`
	PlanID          string    `json:"plan_id"`
	PlanName        string    `json:"plan_name"`
	NextPaymentDate time.Time `json:"next_payment_date"`
	TransactionID   string    `json:"transaction"`
}

type subscriptionsResponse struct {
	Items []Subscription `json:"items"`
}
