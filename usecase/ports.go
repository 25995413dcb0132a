package usecase

import (
	"context"

	"github.com/google/uuid"
)

// CoursePurger abstracts the remote course service call that discards the
// course side of a deleted user's enrollments.
type CoursePurger interface {
	PurgeUser(ctx context.Context, userID uuid.UUID) error
}

// PurgeJournal records remote purges that failed after a local deletion
// already committed, for out-of-band reconciliation. Implementations must
// never block the deletion outcome.
type PurgeJournal interface {
	RecordFailedPurge(ctx context.Context, userID uuid.UUID, cause error) error
}
