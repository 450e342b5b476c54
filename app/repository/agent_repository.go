package repository

import (
	"github.com/omniagency/omniagency/app/models"
	"gorm.io/gorm"
)

// agentRepository implements the AgentRepository interface
type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository instance
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

// Create creates a new agent in the database
func (r *agentRepository) Create(agent *models.Agent) error {
	return r.db.Create(agent).Error
}

// GetByUUID retrieves an agent by its public UUID
func (r *agentRepository) GetByUUID(uuid string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.Where("uuid = ?", uuid).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetByUserID lists a user's agents, newest first
func (r *agentRepository) GetByUserID(userID uint) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&agents).Error
	return agents, err
}

// Update updates an existing agent in the database
func (r *agentRepository) Update(agent *models.Agent) error {
	return r.db.Save(agent).Error
}

// Delete removes an agent by ID
func (r *agentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Agent{}, id).Error
}

// DeleteByUserID removes all agents owned by a user. Called when an
// identity-deletion event removes the owning user (application-layer cascade).
func (r *agentRepository) DeleteByUserID(userID uint) (int64, error) {
	tx := r.db.Where("user_id = ?", userID).Delete(&models.Agent{})
	return tx.RowsAffected, tx.Error
}

// CountByUserID returns the number of agents owned by a user
func (r *agentRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Agent{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
