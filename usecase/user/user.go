// Package user implements the user lifecycle service: filtered listing,
// point lookup, registration, profile/password/image updates and the
// multi-step deletion that keeps the local store and the remote course
// service consistent.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edustack/authuser/domain"
	"github.com/edustack/authuser/repository"
	"github.com/edustack/authuser/usecase"
)

type Service struct {
	users   repository.UserRepository
	courses repository.UserCourseRepository
	purger  usecase.CoursePurger
	journal usecase.PurgeJournal
	logger  *zap.Logger
}

func New(
	users repository.UserRepository,
	courses repository.UserCourseRepository,
	purger usecase.CoursePurger,
	journal usecase.PurgeJournal,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:   users,
		courses: courses,
		purger:  purger,
		journal: journal,
		logger:  logger,
	}
}

// List returns one page of users matching the specification. A non-nil
// courseID narrows the result to users linked to that course.
func (s *Service) List(ctx context.Context, spec repository.Specification, courseID *uuid.UUID, page repository.PageRequest) (domain.UserPage, error) {
	if courseID != nil {
		spec = repository.NewSpecification().WithCourse(*courseID).And(spec)
	}
	return s.users.List(ctx, spec, page.Normalize())
}

// Get is a point lookup by user id.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Register creates a new account after checking username and email
// uniqueness. Timestamps are stamped server-side in UTC.
func (s *Service) Register(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	taken, err := s.users.ExistsByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}

	taken, err = s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreationTime = now
	user.LastUpdateTime = now

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Delete removes a user and all of its course links. Local rows go first:
// link rows, then the user row. Only when links existed is the course
// service asked to purge its side, and only after the local deletion has
// committed. A failed purge is logged and journaled but never rolls the
// local deletion back or fails the call.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	links, err := s.courses.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	purgeRemote := false
	if len(links) > 0 {
		if err := s.courses.DeleteAll(ctx, links); err != nil {
			return err
		}
		purgeRemote = true
	}

	if err := s.users.Delete(ctx, user); err != nil {
		return err
	}

	if purgeRemote {
		s.purgeCourses(ctx, user.ID)
	}

	s.logger.Info("user deleted", zap.String("user_id", user.ID.String()), zap.Int("links", len(links)))
	return nil
}

// UpdateProfile overwrites full name, phone number and CPF. Callers send
// current values for fields they do not mean to change.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phoneNumber, cpf string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName
	user.PhoneNumber = phoneNumber
	user.CPF = cpf
	user.Touch(time.Now())

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID.String()))
	return user, nil
}

// ChangePassword swaps the stored password when the old one matches
// exactly. A mismatch is a conflict, not an infrastructure error.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.Password != oldPassword {
		s.logger.Warn("mismatched old password", zap.String("user_id", user.ID.String()))
		return domain.ErrPasswordMismatch
	}

	user.Password = newPassword
	user.Touch(time.Now())

	if err := s.users.Save(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password updated", zap.String("user_id", user.ID.String()))
	return nil
}

// UpdateImage overwrites the image URL.
func (s *Service) UpdateImage(ctx context.Context, userID uuid.UUID, imageURL string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.ImageURL = imageURL
	user.Touch(time.Now())

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("image updated", zap.String("user_id", user.ID.String()))
	return user, nil
}

// purgeCourses is the best-effort tail of Delete. By the time it runs the
// local deletion has committed, so failure is recorded and swallowed.
func (s *Service) purgeCourses(ctx context.Context, userID uuid.UUID) {
	if s.purger == nil {
		return
	}
	if err := s.purger.PurgeUser(ctx, userID); err != nil {
		s.logger.Error("course purge failed", zap.String("user_id", userID.String()), zap.Error(err))
		if s.journal != nil {
			if jErr := s.journal.RecordFailedPurge(ctx, userID, err); jErr != nil {
				s.logger.Error("failed to journal purge failure", zap.String("user_id", userID.String()), zap.Error(jErr))
			}
		}
	}
}
