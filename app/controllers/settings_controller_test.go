package controllers

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
)

func newSettingsApp(repos *repository.Repositories, user *models.User) *fiber.App {
	ct := NewSettingsController(repos.User)
	return newAuthedApp(user, func(v1 fiber.Router) {
		v1.Get("/settings", ct.Get)
		v1.Put("/settings", ct.Update)
	})
}

func TestSettingsRoundTrip(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	app := newSettingsApp(repos, user)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "", body["default_agent_name"])
	assert.Equal(t, "", body["welcome_message"])

	status, body = doJSON(t, app, fiber.MethodPut, "/api/v1/settings", map[string]string{
		"default_agent_name": "Atlas",
		"welcome_message":    "Hi, how can I help?",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Atlas", body["default_agent_name"])

	got, err := repos.User.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Atlas", got.DefaultAgentName)
	assert.Equal(t, "Hi, how can I help?", got.WelcomeMessage)
}

func TestSettingsUpdateClearsFields(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	require.NoError(t, repos.User.UpdateFields(user.ID, map[string]interface{}{
		"default_agent_name": "Atlas",
		"welcome_message":    "Hello",
	}))
	app := newSettingsApp(repos, user)

	status, _ := doJSON(t, app, fiber.MethodPut, "/api/v1/settings", map[string]string{
		"default_agent_name": "",
		"welcome_message":    "",
	})
	require.Equal(t, fiber.StatusOK, status)

	got, err := repos.User.GetByID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.DefaultAgentName)
	assert.Empty(t, got.WelcomeMessage)
}

func TestSettingsUpdateValidation(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "clerk_1")
	app := newSettingsApp(repos, user)

	status, body := doJSON(t, app, fiber.MethodPut, "/api/v1/settings", map[string]string{
		"default_agent_name": strings.Repeat("x", 51),
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", body["error"])
}
