// Package seed creates the data a fresh installation needs.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appModels "github.com/shreyescodes/erp-portal/internal/app/models"
	pkgAuth "github.com/shreyescodes/erp-portal/internal/pkg/auth"
)

// AdminStore is the part of the user repository the seeder needs
type AdminStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *appModels.User) error
}

// Admin describes the account created on first start
type Admin struct {
	Name     string
	Email    string
	Password string
	Branch   string
	USN      string
}

// CreateDefaultAdmin creates the admin account unless a user with its email
// already exists. Registration never grants the admin role, so this is how
// the first administrator comes to be. An empty password disables seeding.
func CreateDefaultAdmin(ctx context.Context, users AdminStore, admin Admin, lgr zerolog.Logger) error {
	if admin.Password == "" {
		lgr.Warn().Msg("No admin password configured, skipping admin seeding")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(admin.Email))
	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("error checking admin account: %w", err)
	}
	if exists {
		lgr.Info().Str("email", email).Msg("Admin user already exists, skipping creation")
		return nil
	}

	hash, err := pkgAuth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	now := time.Now()
	user := &appModels.User{
		Name:      admin.Name,
		Email:     email,
		Password:  hash,
		Role:      appModels.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if admin.Branch != "" {
		user.Branch = &admin.Branch
	}
	if usn := strings.ToUpper(strings.TrimSpace(admin.USN)); usn != "" {
		user.USN = &usn
	}

	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("error creating admin user: %w", err)
	}

	lgr.Info().Int64("adminId", user.ID).Str("email", email).Msg("Default admin user created")
	return nil
}
