package controllers

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/database"
	"github.com/omniagency/omniagency/internal/pkg/usercontext"
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

func seedUser(t *testing.T, repos *repository.Repositories, clerkID string) *models.User {
	t.Helper()

	user := &models.User{
		ClerkID: clerkID,
		Email:   clerkID + "@example.com",
		Name:    "Test User",
		PlanID:  models.PlanFree,
	}
	require.NoError(t, repos.User.Create(user))
	return user
}

// newAuthedApp builds a fiber app whose /api/v1 group carries an
// already-resolved user context, standing in for the auth middleware.
func newAuthedApp(user *models.User, install func(v1 fiber.Router)) *fiber.App {
	app := fiber.New()
	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     user.ID,
			ClerkID:    user.ClerkID,
			Email:      user.Email,
			Plan:       user.PlanID,
			IsLoggedIn: true,
		})
		return c.Next()
	})
	install(v1)
	return app
}
