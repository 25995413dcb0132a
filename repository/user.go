package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/edustack/authuser/domain"
)

// UserRepository is the persistence gateway for user records.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, spec Specification, page PageRequest) (domain.UserPage, error)
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, user *domain.User) error
}
