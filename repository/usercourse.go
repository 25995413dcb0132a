package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/edustack/authuser/domain"
)

// UserCourseRepository is the persistence gateway for the user-to-course
// enrollment join rows. Link rows never outlive their owning user.
type UserCourseRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserCourseLink, error)
	DeleteAll(ctx context.Context, links []domain.UserCourseLink) error
}
