package repository

import (
	"time"

	"github.com/omniagency/omniagency/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByClerkID(clerkID string) (*models.User, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
	// UpdateFields applies an atomic partial update on a single row.
	UpdateFields(id uint, fields map[string]interface{}) error
	LinkStripeCustomer(id uint, customerID string) error
	DeleteByClerkID(clerkID string) (int64, error)
	Count() (int64, error)
}

// AgentRepository defines the interface for agent-related database operations
type AgentRepository interface {
	Create(agent *models.Agent) error
	GetByUUID(uuid string) (*models.Agent, error)
	GetByUserID(userID uint) ([]models.Agent, error)
	Update(agent *models.Agent) error
	Delete(id uint) error
	DeleteByUserID(userID uint) (int64, error)
	CountByUserID(userID uint) (int64, error)
}

// WebhookEventRepository stores received webhook payloads idempotently.
type WebhookEventRepository interface {
	// CreateIfNotExists inserts the event unless (provider, provider_event_id)
	// is already recorded. Returns created=false for redeliveries.
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
	GetByProviderEventID(provider, providerEventID string) (*models.WebhookEvent, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Agent        AgentRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Agent:        NewAgentRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}

// nowPtr is shared by repositories that stamp nullable timestamps.
func nowPtr() *time.Time {
	now := time.Now()
	return &now
}
