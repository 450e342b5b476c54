package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/usercontext"
)

// AgentController implements the agent CRUD surface. Every operation scopes
// to the authenticated owner; agents of other users are indistinguishable
// from missing ones.
type AgentController struct {
	agents repository.AgentRepository
}

func NewAgentController(agents repository.AgentRepository) *AgentController {
	return &AgentController{agents: agents}
}

type agentForm struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
	Prompt      string `json:"prompt" validate:"required,min=10,max=5000"`
	Status      string `json:"status" validate:"omitempty,oneof=offline active paused"`
	TriggerType string `json:"trigger_type" validate:"omitempty,oneof=manual scheduled event"`
}

// List returns all agents of the current user, empty list included.
func (ct *AgentController) List(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	agents, err := ct.agents.GetByUserID(uc.UserID)
	if err != nil {
		log.Printf("[AgentController] listing agents of user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load agents"})
	}
	if agents == nil {
		agents = []models.Agent{}
	}
	return c.JSON(fiber.Map{"agents": agents})
}

// Create validates the form and persists a new agent for the current user.
func (ct *AgentController) Create(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	var form agentForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&form); err != nil {
		return validationFailed(c, err)
	}

	agent, err := models.NewAgent(uc.UserID, form.Name, form.Description, form.Prompt)
	if err != nil {
		return validationFailed(c, err)
	}
	if form.Status != "" {
		agent.Status = form.Status
	}
	if form.TriggerType != "" {
		agent.TriggerType = form.TriggerType
	}

	if err := ct.agents.Create(agent); err != nil {
		log.Printf("[AgentController] creating agent for user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create agent"})
	}
	return c.Status(fiber.StatusCreated).JSON(agent)
}

// Get returns a single owned agent by its UUID.
func (ct *AgentController) Get(c *fiber.Ctx) error {
	agent, errResp := ct.ownedAgent(c)
	if errResp != nil {
		return errResp(c)
	}
	return c.JSON(agent)
}

// Update applies the full form onto an owned agent.
func (ct *AgentController) Update(c *fiber.Ctx) error {
	agent, errResp := ct.ownedAgent(c)
	if errResp != nil {
		return errResp(c)
	}

	var form agentForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&form); err != nil {
		return validationFailed(c, err)
	}

	agent.Name = form.Name
	agent.Description = form.Description
	agent.Prompt = form.Prompt
	if form.Status != "" {
		agent.Status = form.Status
	}
	if form.TriggerType != "" {
		agent.TriggerType = form.TriggerType
	}

	if err := ct.agents.Update(agent); err != nil {
		log.Printf("[AgentController] updating agent %s failed: %v", agent.UUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update agent"})
	}
	return c.JSON(agent)
}

// Delete removes an owned agent. Deleting an agent that is already gone is
// reported as success so retried deletes stay idempotent.
func (ct *AgentController) Delete(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	agent, err := ct.agents.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"success": true})
		}
		log.Printf("[AgentController] loading agent %s failed: %v", c.Params("uuid"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load agent"})
	}
	if agent.UserID != uc.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	if err := ct.agents.Delete(agent.ID); err != nil {
		log.Printf("[AgentController] deleting agent %s failed: %v", agent.UUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete agent"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ownedAgent loads the agent addressed by the uuid route param and checks
// ownership. The second return value, when non-nil, writes the error response.
func (ct *AgentController) ownedAgent(c *fiber.Ctx) (*models.Agent, func(*fiber.Ctx) error) {
	uc := usercontext.GetUserContext(c)

	agent, err := ct.agents.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
			}
		}
		log.Printf("[AgentController] loading agent %s failed: %v", c.Params("uuid"), err)
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load agent"})
		}
	}
	if agent.UserID != uc.UserID {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
		}
	}
	return agent, nil
}
