package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLeadAndTask(t *testing.T, env *testEnv) (models.Lead, models.Task) {
	t.Helper()

	leadHandler := NewLeadHandler(env.boards, env.analytics, sharedMetrics())
	taskHandler := NewTaskHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"João Santos"}`, "user-1")
	require.NoError(t, leadHandler.Create(c))
	lead := decode[models.Lead](t, rec)

	body := fmt.Sprintf(`{"lead_id":%q,"title":"Agendar visita","due_date":"2026-09-01","priority":"alta"}`, lead.ID)
	c, rec = request(t, http.MethodPost, "/api/v1/tasks", body, "user-1")
	require.NoError(t, taskHandler.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	return lead, decode[models.Task](t, rec)
}

func TestTaskHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	lead, task := createLeadAndTask(t, env)

	assert.Equal(t, lead.ID, task.LeadID)
	assert.Equal(t, "Agendar visita", task.Title)
	assert.False(t, task.Completed)
}

func TestTaskHandler_CreateInvalidDueDate(t *testing.T) {
	env := newTestEnv(t)
	leadHandler := NewLeadHandler(env.boards, env.analytics, sharedMetrics())
	taskHandler := NewTaskHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"João Santos"}`, "user-1")
	require.NoError(t, leadHandler.Create(c))
	lead := decode[models.Lead](t, rec)

	body := fmt.Sprintf(`{"lead_id":%q,"title":"Agendar visita","due_date":"amanhã"}`, lead.ID)
	c, rec = request(t, http.MethodPost, "/api/v1/tasks", body, "user-1")
	require.NoError(t, taskHandler.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "Data de vencimento inválida", resp.Message)
}

func TestTaskHandler_Toggle(t *testing.T) {
	env := newTestEnv(t)
	_, task := createLeadAndTask(t, env)
	h := NewTaskHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/toggle", "", "user-1")
	c.SetParamNames("id")
	c.SetParamValues(task.ID)

	require.NoError(t, h.Toggle(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Task](t, rec).Completed)

	c, rec = request(t, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/toggle", "", "user-1")
	c.SetParamNames("id")
	c.SetParamValues(task.ID)

	require.NoError(t, h.Toggle(c))
	assert.False(t, decode[models.Task](t, rec).Completed)
}

func TestTaskHandler_DeleteUnknown(t *testing.T) {
	env := newTestEnv(t)
	h := NewTaskHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodDelete, "/api/v1/tasks/nope", "", "user-1")
	c.SetParamNames("id")
	c.SetParamValues("nope")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
