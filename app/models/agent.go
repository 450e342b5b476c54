package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	AgentStatusOffline = "offline"
	AgentStatusActive  = "active"
	AgentStatusPaused  = "paused"
)

const (
	AgentTriggerManual    = "manual"
	AgentTriggerScheduled = "scheduled"
	AgentTriggerEvent     = "event"
)

// Agent is a user-owned configuration record with no runtime behavior of its
// own. Ownership is checked in the handlers before every mutation, not
// enforced by a database constraint.
type Agent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=3,max=100"`
	Description string    `gorm:"type:varchar(500);default:''" json:"description" validate:"max=500"`
	Prompt      string    `gorm:"type:text;not null" json:"prompt" validate:"required,min=10,max=5000"`
	Status      string    `gorm:"type:varchar(20);not null;default:'offline'" json:"status" validate:"oneof=offline active paused"`
	TriggerType string    `gorm:"type:varchar(20);not null;default:'manual'" json:"trigger_type" validate:"oneof=manual scheduled event"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Agent) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// NewAgent builds an agent with defaults applied and a fresh UUID.
func NewAgent(userID uint, name, description, prompt string) (*Agent, error) {
	a := &Agent{
		UUID:        uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Prompt:      prompt,
		Status:      AgentStatusOffline,
		TriggerType: AgentTriggerManual,
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}
