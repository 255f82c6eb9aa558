package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type AdminUserRepository interface {
	FindByID(ctx context.Context, userID int64) (*model.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*model.AdminUser, error)

	// EnsureAdmin creates the account when missing; an existing account keeps its hash.
	EnsureAdmin(ctx context.Context, email string, passwordHash string) (*model.AdminUser, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}
