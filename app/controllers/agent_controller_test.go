package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
)

func newAgentApp(repos *repository.Repositories, user *models.User) *fiber.App {
	ct := NewAgentController(repos.Agent)
	return newAuthedApp(user, func(v1 fiber.Router) {
		v1.Get("/agents", ct.List)
		v1.Post("/agents", ct.Create)
		v1.Get("/agents/:uuid", ct.Get)
		v1.Put("/agents/:uuid", ct.Update)
		v1.Delete("/agents/:uuid", ct.Delete)
	})
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestAgentCreateAndList(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	app := newAgentApp(repos, user)

	status, created := doJSON(t, app, fiber.MethodPost, "/api/v1/agents", map[string]string{
		"name":   "Support bot",
		"prompt": "Answer customer questions politely.",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Support bot", created["name"])
	assert.Equal(t, models.AgentStatusOffline, created["status"])
	assert.Equal(t, models.AgentTriggerManual, created["trigger_type"])
	assert.NotEmpty(t, created["uuid"])

	status, listed := doJSON(t, app, fiber.MethodGet, "/api/v1/agents", nil)
	require.Equal(t, fiber.StatusOK, status)
	agents, ok := listed["agents"].([]interface{})
	require.True(t, ok)
	assert.Len(t, agents, 1)
}

func TestAgentCreateValidation(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	app := newAgentApp(repos, user)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/agents", map[string]string{
		"name":   "ab",
		"prompt": "short",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", body["error"])

	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "Prompt")
}

func TestAgentGetScopedToOwner(t *testing.T) {
	repos := newTestRepos(t)
	owner := seedUser(t, repos, "clerk_owner")
	intruder := seedUser(t, repos, "clerk_intruder")

	agent, err := models.NewAgent(owner.ID, "Support bot", "", "Answer customer questions politely.")
	require.NoError(t, err)
	require.NoError(t, repos.Agent.Create(agent))

	ownerApp := newAgentApp(repos, owner)
	status, _ := doJSON(t, ownerApp, fiber.MethodGet, "/api/v1/agents/"+agent.UUID, nil)
	assert.Equal(t, fiber.StatusOK, status)

	// Another user's agent looks exactly like a missing one.
	intruderApp := newAgentApp(repos, intruder)
	status, _ = doJSON(t, intruderApp, fiber.MethodGet, "/api/v1/agents/"+agent.UUID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAgentUpdate(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	app := newAgentApp(repos, user)

	agent, err := models.NewAgent(user.ID, "Support bot", "", "Answer customer questions politely.")
	require.NoError(t, err)
	require.NoError(t, repos.Agent.Create(agent))

	status, updated := doJSON(t, app, fiber.MethodPut, "/api/v1/agents/"+agent.UUID, map[string]string{
		"name":   "Sales bot",
		"prompt": "Qualify leads and book demo calls.",
		"status": models.AgentStatusActive,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Sales bot", updated["name"])
	assert.Equal(t, models.AgentStatusActive, updated["status"])

	got, err := repos.Agent.GetByUUID(agent.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Sales bot", got.Name)
}

func TestAgentUpdateForeignAgentIs404(t *testing.T) {
	repos := newTestRepos(t)
	owner := seedUser(t, repos, "clerk_owner")
	intruder := seedUser(t, repos, "clerk_intruder")

	agent, err := models.NewAgent(owner.ID, "Support bot", "", "Answer customer questions politely.")
	require.NoError(t, err)
	require.NoError(t, repos.Agent.Create(agent))

	app := newAgentApp(repos, intruder)
	status, _ := doJSON(t, app, fiber.MethodPut, "/api/v1/agents/"+agent.UUID, map[string]string{
		"name":   "Hijacked",
		"prompt": "This should never be stored anywhere.",
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	got, err := repos.Agent.GetByUUID(agent.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Support bot", got.Name)
}

func TestAgentDelete(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	app := newAgentApp(repos, user)

	agent, err := models.NewAgent(user.ID, "Support bot", "", "Answer customer questions politely.")
	require.NoError(t, err)
	require.NoError(t, repos.Agent.Create(agent))

	status, body := doJSON(t, app, fiber.MethodDelete, "/api/v1/agents/"+agent.UUID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	// Retried delete of a gone agent still succeeds.
	status, _ = doJSON(t, app, fiber.MethodDelete, "/api/v1/agents/"+agent.UUID, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAgentDeleteForeignAgentIs404(t *testing.T) {
	repos := newTestRepos(t)
	owner := seedUser(t, repos, "clerk_owner")
	intruder := seedUser(t, repos, "clerk_intruder")

	agent, err := models.NewAgent(owner.ID, "Support bot", "", "Answer customer questions politely.")
	require.NoError(t, err)
	require.NoError(t, repos.Agent.Create(agent))

	app := newAgentApp(repos, intruder)
	status, _ := doJSON(t, app, fiber.MethodDelete, "/api/v1/agents/"+agent.UUID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	_, err = repos.Agent.GetByUUID(agent.UUID)
	assert.NoError(t, err)
}
