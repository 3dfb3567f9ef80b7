package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ethics-review-api/models"
	"ethics-review-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewUser is the input for account registration.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

func (u NewUser) validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return validationError("name is required")
	}
	if !utils.ValidateEmail(u.Email) {
		return validationError("invalid email %q", u.Email)
	}
	if ok, msg := utils.ValidatePassword(u.Password); !ok {
		return validationError("%s", msg)
	}
	if !u.Role.Valid() {
		return validationError("unknown role %q", u.Role)
	}
	return nil
}

// GormAccounts manages the users table for operator tooling. Credentials are
// stored as bcrypt hashes for the external token issuer to check.
type GormAccounts struct {
	db *gorm.DB
}

func NewGormAccounts(db *gorm.DB) *GormAccounts {
	return &GormAccounts{db: db}
}

// Register creates a user with a bcrypt-hashed password.
func (a *GormAccounts) Register(ctx context.Context, input NewUser) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := input.validate(); err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now()
	user := &models.User{
		UserID:   uuid.NewString(),
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Password: hashed,
		Role:     input.Role,
		CreateAt: &now,
		UpdateAt: &now,
	}
	if err := a.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", input.Email, err)
	}
	return user, nil
}

// HashLegacyPasswords replaces every plain-text password with its bcrypt hash
// and returns how many rows changed.
func (a *GormAccounts) HashLegacyPasswords(ctx context.Context) (int, error) {
	var users []models.User
	if err := a.db.WithContext(ctx).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	updated := 0
	for _, user := range users {
		if utils.IsPasswordHashed(user.Password) {
			log.Printf("User %s already has hashed password, skipping", user.Email)
			continue
		}
		hashed, err := utils.HashPassword(user.Password)
		if err != nil {
			log.Printf("Failed to hash password for user %s: %v", user.Email, err)
			continue
		}
		if err := a.db.WithContext(ctx).Model(&models.User{}).
			Where("user_id = ?", user.UserID).
			Update("password", hashed).Error; err != nil {
			log.Printf("Failed to update password for user %s: %v", user.Email, err)
			continue
		}
		updated++
		log.Printf("Successfully updated password for user %s", user.Email)
	}
	return updated, nil
}
