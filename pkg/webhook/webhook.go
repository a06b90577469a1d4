// Package webhook processes payment-platform events and keeps the
// subscriptions table current. Every event upserts one row keyed by the
// buyer's e-mail.
package webhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/pipelinealfa/crm/pkg/domain"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/store"
)

// Events the payment platform sends.
const (
	EventPurchaseComplete         = "PURCHASE_COMPLETE"
	EventSubscriptionExpired      = "SUBSCRIPTION_EXPIRED"
	EventSubscriptionRestarted    = "SUBSCRIPTION_RESTARTED"
	EventSubscriptionCancellation = "SUBSCRIPTION_CANCELLATION"
)

// Event is the webhook payload.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Buyer        Buyer         `json:"buyer"`
	Purchase     Purchase      `json:"purchase"`
	Subscription *Subscription `json:"subscription"`
}

type Buyer struct {
	Email string `json:"email"`
}

type Purchase struct {
	Transaction string `json:"transaction"`
}

type Subscription struct {
	Status     string     `json:"status"`
	Subscriber Subscriber `json:"subscriber"`
	Plan       Plan       `json:"plan"`
}

type Subscriber struct {
	Code string `json:"code"`
}

type Plan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Invalidator drops memoized subscription verdicts when a row changes.
type Invalidator interface {
	Forget(email string)
}

// Service applies webhook events to the subscriptions table.
type Service struct {
	subs        store.SubscriptionStore
	invalidator Invalidator
	log         logger.Logger
}

// NewService creates the webhook processor. invalidator may be nil.
func NewService(subs store.SubscriptionStore, invalidator Invalidator, log logger.Logger) *Service {
	return &Service{subs: subs, invalidator: invalidator, log: log}
}

// Process validates the event and upserts the subscription row. Unknown
// events are acknowledged without changing anything so the platform does not
// retry them forever.
func (s *Service) Process(ctx context.Context, event *Event) (*models.Subscription, error) {
	email := strings.ToLower(strings.TrimSpace(event.Data.Buyer.Email))
	if email == "" {
		return nil, domain.NewBadRequestError("E-mail do comprador ausente no evento")
	}

	status, known := statusForEvent(event.Event)
	if !known {
		s.log.Info("ignoring unknown webhook event", "event", event.Event, "email", email)
		return nil, nil
	}

	row := &models.Subscription{
		Email:                email,
		Status:               status,
		HotmartTransactionID: event.Data.Purchase.Transaction,
	}
	if sub := event.Data.Subscription; sub != nil {
		row.SubscriptionStatus = sub.Status
		row.HotmartSubscriberCode = sub.Subscriber.Code
		row.HotmartPlanID = sub.Plan.ID
		row.HotmartPlanName = sub.Plan.Name
	}

	saved, err := s.subs.Upsert(ctx, row)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("upsert subscription: %w", err))
	}

	if s.invalidator != nil {
		s.invalidator.Forget(email)
	}

	s.log.Info("webhook applied", "event", event.Event, "email", email, "status", status)
	return saved, nil
}

func statusForEvent(event string) (string, bool) {
	switch event {
	case EventPurchaseComplete, EventSubscriptionRestarted:
		return models.SubscriptionActive, true
	case EventSubscriptionExpired:
		return models.SubscriptionExpired, true
	case EventSubscriptionCancellation:
		return models.SubscriptionInactive, true
	default:
		return "", false
	}
}
