package repository

import (
	"errors"
	"strings"

	"github.com/omniagency/omniagency/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByClerkID retrieves a user by their external auth identity
func (r *userRepository) GetByClerkID(clerkID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("clerk_id = ?", clerkID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByStripeCustomerID retrieves the user linked to a billing customer.
// At most one user carries any given customer ID (unique index).
func (r *userRepository) GetByStripeCustomerID(customerID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields applies an atomic partial update on a single row. Used by the
// reconcilers so a projection is one UPDATE statement, never read-modify-write.
func (r *userRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// LinkStripeCustomer sets the billing customer ID once; it is stable afterwards.
func (r *userRepository) LinkStripeCustomer(id uint, customerID string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("stripe_customer_id", customerID).Error
}

// DeleteByClerkID removes the user row and returns how many rows went away,
// so callers can treat an already-deleted user as success.
func (r *userRepository) DeleteByClerkID(clerkID string) (int64, error) {
	tx := r.db.Where("clerk_id = ?", clerkID).Delete(&models.User{})
	return tx.RowsAffected, tx.Error
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// IsDuplicateKey reports whether err is a unique-constraint violation. GORM
// only translates driver errors when TranslateError is enabled, so the raw
// MySQL and SQLite messages are matched as well.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
