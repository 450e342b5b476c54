package identity

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/database"
)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	return repository.NewRepositories(db)
}

func createdEvent(clerkID, email string) *Event {
	evt, err := ParseEvent([]byte(`{
		"type": "user.created",
		"data": {
			"id": "` + clerkID + `",
			"first_name": "Ada",
			"last_name": "Lovelace",
			"image_url": "https://img.clerk.com/` + clerkID + `",
			"primary_email_address_id": "idn_1",
			"email_addresses": [{"id": "idn_1", "email_address": "` + email + `"}]
		}
	}`))
	if err != nil {
		panic(err)
	}
	return evt
}

func TestApplyCreated(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	outcome, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	user, err := repos.User.GetByClerkID("user_1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, models.PlanFree, user.PlanID)
	assert.Nil(t, user.StripeCustomerID)
}

func TestApplyCreatedRedeliveryIsDuplicate(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	_, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)

	outcome, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	count, err := repos.User.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestApplyCreatedMissingDataIsSkipped(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	evt, err := ParseEvent([]byte(`{"type":"user.created","data":{"id":"user_1"}}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Error(t, applyErr)
}

func TestApplyUpdatedBeforeCreateIsNotFound(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	evt, err := ParseEvent([]byte(`{"type":"user.updated","data":{"id":"user_ghost","first_name":"Ada"}}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)
	assert.Equal(t, OutcomeNotFound, outcome)
}

func TestApplyUpdatedOverwritesProfile(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	_, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)

	evt, err := ParseEvent([]byte(`{
		"type": "user.updated",
		"data": {
			"id": "user_1",
			"first_name": "Grace",
			"last_name": "Hopper",
			"image_url": "https://img.clerk.com/new",
			"primary_email_address_id": "idn_9",
			"email_addresses": [{"id": "idn_9", "email_address": "grace@example.com"}]
		}
	}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)
	assert.Equal(t, OutcomeApplied, outcome)

	user, err := repos.User.GetByClerkID("user_1")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", user.Name)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Equal(t, "https://img.clerk.com/new", user.AvatarURL)
}

func TestApplyUpdatedKeepsEmailWhenPayloadHasNone(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	_, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)

	evt, err := ParseEvent([]byte(`{"type":"user.updated","data":{"id":"user_1","first_name":"Ada","last_name":"L"}}`))
	require.NoError(t, err)

	_, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)

	user, err := repos.User.GetByClerkID("user_1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestApplyDeletedCascadesAgents(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	_, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)
	user, err := repos.User.GetByClerkID("user_1")
	require.NoError(t, err)

	agent, err := models.NewAgent(user.ID, "Support bot", "", "Answer customer questions politely.")
	require.NoError(t, err)
	require.NoError(t, repos.Agent.Create(agent))

	evt, err := ParseEvent([]byte(`{"type":"user.deleted","data":{"id":"user_1","deleted":true}}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)
	assert.Equal(t, OutcomeApplied, outcome)

	_, err = repos.User.GetByClerkID("user_1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	remaining, err := repos.Agent.CountByUserID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestApplyDeletedWithoutFlagIsSkipped(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	_, err := rec.Apply(createdEvent("user_1", "ada@example.com"))
	require.NoError(t, err)

	evt, err := ParseEvent([]byte(`{"type":"user.deleted","data":{"id":"user_1"}}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)
	assert.Equal(t, OutcomeSkipped, outcome)

	_, err = repos.User.GetByClerkID("user_1")
	assert.NoError(t, err)
}

func TestApplyDeletedAlreadyGoneIsDuplicate(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	evt, err := ParseEvent([]byte(`{"type":"user.deleted","data":{"id":"user_ghost","deleted":true}}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)
	assert.Equal(t, OutcomeDuplicate, outcome)
}

func TestApplyUnknownTypeIsSkipped(t *testing.T) {
	repos := newTestRepos(t)
	rec := NewReconciler(repos.User, repos.Agent)

	evt, err := ParseEvent([]byte(`{"type":"session.created","data":{"id":"sess_1"}}`))
	require.NoError(t, err)

	outcome, applyErr := rec.Apply(evt)
	require.NoError(t, applyErr)
	assert.Equal(t, OutcomeSkipped, outcome)
}
