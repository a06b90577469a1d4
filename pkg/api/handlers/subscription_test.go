package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pipelinealfa/crm/pkg/hotmart"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/store"
	"github.com/pipelinealfa/crm/pkg/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPayments struct {
	subs []hotmart.Subscription
	err  error
}

func (p *stubPayments) ActiveSubscriptions(_ context.Context, _ string) ([]hotmart.Subscription, error) {
	return p.subs, p.err
}

type stubSubStore struct {
	row *models.Subscription
	err error
}

func (s *stubSubStore) FindActiveByEmail(_ context.Context, _ string) (*models.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.row == nil {
		return nil, store.ErrNotFound
	}
	return s.row, nil
}

func (s *stubSubStore) Upsert(_ context.Context, sub *models.Subscription) (*models.Subscription, error) {
	return sub, nil
}

func (s *stubSubStore) MarkExpiredOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newSubscriptionHandler(payments *stubPayments) *SubscriptionHandler {
	oracle := subscription.NewOracle(payments, &stubSubStore{}, logger.Default())
	return NewSubscriptionHandler(oracle, sharedMetrics())
}

func TestSubscriptionHandler_CheckMissingEmail(t *testing.T) {
	h := newSubscriptionHandler(&stubPayments{})

	c, rec := request(t, http.MethodPost, "/api/v1/subscription/check", `{}`, "")

	require.NoError(t, h.Check(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, subscription.MsgEmailRequired, resp.Message)
}

func TestSubscriptionHandler_CheckInvalidEmail(t *testing.T) {
	h := newSubscriptionHandler(&stubPayments{})

	c, rec := request(t, http.MethodPost, "/api/v1/subscription/check", `{"email":"not-an-email"}`, "")

	require.NoError(t, h.Check(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "E-mail inválido", resp.Message)
}

func TestSubscriptionHandler_CheckActive(t *testing.T) {
	h := newSubscriptionHandler(&stubPayments{
		subs: []hotmart.Subscription{{Status: "ACTIVE", NextPaymentDate: time.Now().Add(24 * time.Hour)}},
	})

	c, rec := request(t, http.MethodPost, "/api/v1/subscription/check", `{"email":"maria@example.com"}`, "")

	require.NoError(t, h.Check(c))
	require.Equal(t, http.StatusOK, rec.Code)

	verdict := decode[subscription.Verdict](t, rec)
	assert.True(t, verdict.HasActiveSubscription)
	assert.Equal(t, subscription.MsgActiveFound, verdict.Message)
}

func TestSubscriptionHandler_CheckViaQueryParam(t *testing.T) {
	h := newSubscriptionHandler(&stubPayments{
		subs: []hotmart.Subscription{{Status: "ACTIVE", NextPaymentDate: time.Now().Add(24 * time.Hour)}},
	})

	c, rec := request(t, http.MethodGet, "/api/v1/subscription/check?email=maria@example.com", "", "")

	require.NoError(t, h.Check(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[subscription.Verdict](t, rec).HasActiveSubscription)
}

func TestSubscriptionHandler_StatusUsesTokenEmail(t *testing.T) {
	h := newSubscriptionHandler(&stubPayments{err: hotmart.ErrUserNotFound})

	c, rec := request(t, http.MethodGet, "/api/v1/subscription/status", "", "user-1")

	require.NoError(t, h.Status(c))
	require.Equal(t, http.StatusOK, rec.Code)

	verdict := decode[subscription.Verdict](t, rec)
	assert.False(t, verdict.HasActiveSubscription)
	assert.Equal(t, subscription.MsgUserNotFound, verdict.Message)
}
