package dao

import (
	"deepchat-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDAO handles user-related database operations
type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{db: db}
}

// GetUser retrieves a user by its external identifier
func (d *UserDAO) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByStripeCustomer retrieves a user by Stripe customer id
func (d *UserDAO) GetUserByStripeCustomer(customerID string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates the local user row or refreshes its email. The row is
// a projection of the external auth backend's account record.
func (d *UserDAO) UpsertUser(user *models.User) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(user).Error
}

// UpdateSubscription applies billing state from a Stripe event.
func (d *UserDAO) UpdateSubscription(userID string, fields map[string]interface{}) error {
	return d.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(fields).Error
}
