package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadHandler_CreateDefaultsToFirstStage(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	body := `{"name":"Maria Silva","phone":"(11) 99999-1234","neighborhood":"Vila Madalena"}`
	c, rec := request(t, http.MethodPost, "/api/v1/leads", body, "user-1")

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	lead := decode[models.Lead](t, rec)
	assert.Equal(t, "Maria Silva", lead.Name)
	assert.Equal(t, pipeline.StageNew, lead.Status)
	assert.NotEmpty(t, lead.ID)
}

func TestLeadHandler_CreateRejectsShortName(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"M"}`, "user-1")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadHandler_ListScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	c, _ := request(t, http.MethodPost, "/api/v1/leads", `{"name":"Maria Silva"}`, "user-1")
	require.NoError(t, h.Create(c))

	c, rec := request(t, http.MethodGet, "/api/v1/leads", "", "user-2")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Lead](t, rec))

	c, rec = request(t, http.MethodGet, "/api/v1/leads", "", "user-1")
	require.NoError(t, h.List(c))
	assert.Len(t, decode[[]models.Lead](t, rec), 1)
}

func TestLeadHandler_MoveBetweenStages(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"Maria Silva"}`, "user-1")
	require.NoError(t, h.Create(c))
	lead := decode[models.Lead](t, rec)

	body := fmt.Sprintf(`{"from":%q,"to":%q}`, pipeline.StageNew, pipeline.StageInContact)
	c, rec = request(t, http.MethodPatch, "/api/v1/leads/"+lead.ID+"/move", body, "user-1")
	c.SetParamNames("id")
	c.SetParamValues(lead.ID)

	require.NoError(t, h.Move(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = request(t, http.MethodGet, "/api/v1/leads", "", "user-1")
	require.NoError(t, h.List(c))
	leads := decode[[]models.Lead](t, rec)
	require.Len(t, leads, 1)
	assert.Equal(t, pipeline.StageInContact, leads[0].Status)
}

func TestLeadHandler_MoveUnknownLead(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	body := fmt.Sprintf(`{"from":%q,"to":%q}`, pipeline.StageNew, pipeline.StageInContact)
	c, rec := request(t, http.MethodPatch, "/api/v1/leads/nope/move", body, "user-1")
	c.SetParamNames("id")
	c.SetParamValues("nope")

	require.NoError(t, h.Move(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeadHandler_DeleteRemovesTasks(t *testing.T) {
	env := newTestEnv(t)
	leadHandler := NewLeadHandler(env.boards, env.analytics, sharedMetrics())
	taskHandler := NewTaskHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"Maria Silva"}`, "user-1")
	require.NoError(t, leadHandler.Create(c))
	lead := decode[models.Lead](t, rec)

	taskBody := fmt.Sprintf(`{"lead_id":%q,"title":"Ligar para o cliente","due_date":"2026-09-01"}`, lead.ID)
	c, rec = request(t, http.MethodPost, "/api/v1/tasks", taskBody, "user-1")
	require.NoError(t, taskHandler.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = request(t, http.MethodDelete, "/api/v1/leads/"+lead.ID, "", "user-1")
	c.SetParamNames("id")
	c.SetParamValues(lead.ID)
	require.NoError(t, leadHandler.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = request(t, http.MethodGet, "/api/v1/tasks", "", "user-1")
	require.NoError(t, taskHandler.List(c))
	assert.Empty(t, decode[[]models.Task](t, rec))
}

func TestLeadHandler_WhatsAppLink(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"Maria Silva","phone":"(11) 99999-1234"}`, "user-1")
	require.NoError(t, h.Create(c))
	lead := decode[models.Lead](t, rec)

	c, rec = request(t, http.MethodGet, "/api/v1/leads/"+lead.ID+"/whatsapp", "", "user-1")
	c.SetParamNames("id")
	c.SetParamValues(lead.ID)

	require.NoError(t, h.WhatsApp(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "https://wa.me/5511999991234", resp["link"])
}

func TestLeadHandler_WhatsAppWithoutPhone(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"Maria Silva"}`, "user-1")
	require.NoError(t, h.Create(c))
	lead := decode[models.Lead](t, rec)

	c, rec = request(t, http.MethodGet, "/api/v1/leads/"+lead.ID+"/whatsapp", "", "user-1")
	c.SetParamNames("id")
	c.SetParamValues(lead.ID)

	require.NoError(t, h.WhatsApp(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadHandler_AddInteraction(t *testing.T) {
	env := newTestEnv(t)
	h := NewLeadHandler(env.boards, env.analytics, sharedMetrics())

	c, rec := request(t, http.MethodPost, "/api/v1/leads", `{"name":"Maria Silva"}`, "user-1")
	require.NoError(t, h.Create(c))
	lead := decode[models.Lead](t, rec)

	body := `{"type":"ligacao","content":"Primeira ligação","date":"2026-08-28"}`
	c, rec = request(t, http.MethodPost, "/api/v1/leads/"+lead.ID+"/interactions", body, "user-1")
	c.SetParamNames("id")
	c.SetParamValues(lead.ID)

	require.NoError(t, h.AddInteraction(c))
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decode[models.Lead](t, rec)
	require.Len(t, updated.Interactions, 1)
	assert.Equal(t, "ligacao", updated.Interactions[0].Type)
}
