package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/analytics"
	"github.com/pipelinealfa/crm/pkg/board"
	"github.com/pipelinealfa/crm/pkg/cache"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/metrics"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/store"
	"github.com/stretchr/testify/require"
)

// Prometheus collectors register globally, so the whole package shares one
// Metrics instance.
var (
	metricsOnce sync.Once
	testMetrics *metrics.Metrics
)

func sharedMetrics() *metrics.Metrics {
	metricsOnce.Do(func() { testMetrics = metrics.New() })
	return testMetrics
}

// memLeadStore is an in-memory LeadStore keyed by lead ID.
type memLeadStore struct {
	mu    sync.Mutex
	leads map[string]models.Lead
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: make(map[string]models.Lead)}
}

func (s *memLeadStore) ListByUser(_ context.Context, userID string) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lead
	for _, l := range s.leads {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memLeadStore) Create(_ context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = *lead
	return nil
}

func (s *memLeadStore) Update(_ context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = *lead
	return nil
}

func (s *memLeadStore) UpdateStatus(_ context.Context, _, leadID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return store.ErrNotFound
	}
	l.Status = status
	s.leads[leadID] = l
	return nil
}

func (s *memLeadStore) UpdateInteractions(_ context.Context, _, leadID string, interactions []models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return store.ErrNotFound
	}
	l.Interactions = interactions
	s.leads[leadID] = l
	return nil
}

func (s *memLeadStore) Delete(_ context.Context, _, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leads, leadID)
	return nil
}

// memTaskStore is an in-memory TaskStore keyed by task ID.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[string]models.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[string]models.Task)}
}

func (s *memTaskStore) ListByUser(_ context.Context, userID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memTaskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

func (s *memTaskStore) Update(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

func (s *memTaskStore) SetCompleted(_ context.Context, _, taskID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrNotFound
	}
	t.Completed = completed
	s.tasks[taskID] = t
	return nil
}

func (s *memTaskStore) Delete(_ context.Context, _, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	return nil
}

// testEnv bundles the pieces most handler tests need.
type testEnv struct {
	boards    *board.Registry
	analytics *analytics.Service
	leadStore *memLeadStore
	taskStore *memTaskStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	cacheClient, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { cacheClient.Close() })

	leads := newMemLeadStore()
	tasks := newMemTaskStore()
	log := logger.Default()

	return &testEnv{
		boards:    board.NewRegistry(leads, tasks, notify.NewRecorder(), log, time.Hour, time.Hour),
		analytics: analytics.NewService(cacheClient, sharedMetrics(), log),
		leadStore: leads,
		taskStore: tasks,
	}
}

// request builds an authenticated echo context with a JSON body.
func request(t *testing.T, method, path, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("user_email", userID+"@example.com")
	}
	return c, rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
