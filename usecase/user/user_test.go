package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edustack/authuser/domain"
	"github.com/edustack/authuser/repository"
)

// callLog records cross-fake operation order so tests can assert the
// deletion sequence: links first, then the user row, then the remote purge.
type callLog struct {
	calls []string
}

func (l *callLog) add(name string) {
	l.calls = append(l.calls, name)
}

type fakeUserRepo struct {
	log   *callLog
	users map[uuid.UUID]domain.User
	links map[uuid.UUID][]domain.UserCourseLink

	saveErr error
}

func newFakeUserRepo(log *callLog) *fakeUserRepo {
	return &fakeUserRepo{
		log:   log,
		users: make(map[uuid.UUID]domain.User),
		links: make(map[uuid.UUID][]domain.UserCourseLink),
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) List(_ context.Context, spec repository.Specification, page repository.PageRequest) (domain.UserPage, error) {
	page = page.Normalize()

	var matched []domain.User
	for _, u := range r.users {
		if spec.Matches(u, r.links[u.ID]) {
			matched = append(matched, u)
		}
	}

	// ascending by id keeps paging deterministic in the fake
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].ID.String() < matched[i].ID.String() {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}

	return domain.UserPage{
		Content:       matched[start:end],
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    page.TotalPages(total),
	}, nil
}

func (r *fakeUserRepo) Save(_ context.Context, user *domain.User) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.log.add("user.save")
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, user *domain.User) error {
	r.log.add("user.delete")
	delete(r.users, user.ID)
	return nil
}

type fakeCourseRepo struct {
	log   *callLog
	users *fakeUserRepo
}

func (r *fakeCourseRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.UserCourseLink, error) {
	return r.users.links[userID], nil
}

func (r *fakeCourseRepo) DeleteAll(_ context.Context, links []domain.UserCourseLink) error {
	r.log.add("links.delete")
	for _, link := range links {
		remaining := r.users.links[link.UserID][:0]
		for _, l := range r.users.links[link.UserID] {
			if l.ID != link.ID {
				remaining = append(remaining, l)
			}
		}
		r.users.links[link.UserID] = remaining
	}
	return nil
}

type fakePurger struct {
	log    *callLog
	err    error
	purged []uuid.UUID
}

func (p *fakePurger) PurgeUser(_ context.Context, userID uuid.UUID) error {
	p.log.add("purge")
	p.purged = append(p.purged, userID)
	return p.err
}

type fakeJournal struct {
	recorded []uuid.UUID
}

func (j *fakeJournal) RecordFailedPurge(_ context.Context, userID uuid.UUID, _ error) error {
	j.recorded = append(j.recorded, userID)
	return nil
}

type fixture struct {
	svc     *Service
	users   *fakeUserRepo
	courses *fakeCourseRepo
	purger  *fakePurger
	journal *fakeJournal
	log     *callLog
}

func newFixture() *fixture {
	log := &callLog{}
	users := newFakeUserRepo(log)
	courses := &fakeCourseRepo{log: log, users: users}
	purger := &fakePurger{log: log}
	journal := &fakeJournal{}
	return &fixture{
		svc:     New(users, courses, purger, journal, nil),
		users:   users,
		courses: courses,
		purger:  purger,
		journal: journal,
		log:     log,
	}
}

func (f *fixture) seedUser(username, email string) domain.User {
	u := domain.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		FullName:       "Seed User",
		Password:       "secret",
		Status:         domain.StatusActive,
		Role:           domain.RoleStudent,
		CreationTime:   time.Now().UTC(),
		LastUpdateTime: time.Now().UTC(),
	}
	f.users.users[u.ID] = u
	return u
}

func (f *fixture) seedLink(userID, courseID uuid.UUID) domain.UserCourseLink {
	link := domain.UserCourseLink{ID: uuid.New(), UserID: userID, CourseID: courseID}
	f.users.links[userID] = append(f.users.links[userID], link)
	return link
}

func TestGetReturnsExistingUser(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("maria", "maria@edu.test")

	got, err := f.svc.Get(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != seeded.ID || got.Username != seeded.Username {
		t.Fatalf("got user %+v, want %+v", got, seeded)
	}
}

func TestGetUnknownUserIsNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), uuid.New())
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteWithoutLinksSkipsRemotePurge(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("joao", "joao@edu.test")

	if err := f.svc.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.purger.purged) != 0 {
		t.Fatalf("course service must not be called for a user without links")
	}
	if _, ok := f.users.users[seeded.ID]; ok {
		t.Fatalf("user row should be gone")
	}
	want := []string{"user.delete"}
	if len(f.log.calls) != 1 || f.log.calls[0] != want[0] {
		t.Fatalf("calls = %v, want %v", f.log.calls, want)
	}
}

func TestDeleteWithLinksOrdersLocalBeforeRemote(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("ana", "ana@edu.test")
	f.seedLink(seeded.ID, uuid.New())
	f.seedLink(seeded.ID, uuid.New())

	if err := f.svc.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"links.delete", "user.delete", "purge"}
	if len(f.log.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", f.log.calls, want)
	}
	for i := range want {
		if f.log.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", f.log.calls, want)
		}
	}
	if len(f.purger.purged) != 1 || f.purger.purged[0] != seeded.ID {
		t.Fatalf("purge calls = %v, want exactly one for %s", f.purger.purged, seeded.ID)
	}
	if len(f.users.links[seeded.ID]) != 0 {
		t.Fatalf("links should be gone")
	}
}

func TestDeleteSucceedsWhenRemotePurgeFails(t *testing.T) {
	f := newFixture()
	f.purger.err = errors.New("course service down")
	seeded := f.seedUser("rui", "rui@edu.test")
	f.seedLink(seeded.ID, uuid.New())

	if err := f.svc.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("local deletion already committed, expected success, got %v", err)
	}

	if _, ok := f.users.users[seeded.ID]; ok {
		t.Fatalf("user row should be gone despite purge failure")
	}
	if len(f.users.links[seeded.ID]) != 0 {
		t.Fatalf("links should be gone despite purge failure")
	}
	if len(f.journal.recorded) != 1 || f.journal.recorded[0] != seeded.ID {
		t.Fatalf("failed purge should be journaled, got %v", f.journal.recorded)
	}
}

func TestDeleteUnknownUserMutatesNothing(t *testing.T) {
	f := newFixture()
	f.seedUser("bystander", "bystander@edu.test")

	err := f.svc.Delete(context.Background(), uuid.New())
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(f.log.calls) != 0 {
		t.Fatalf("no store mutation expected, got %v", f.log.calls)
	}
}

func TestChangePasswordHappyPath(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("lia", "lia@edu.test")
	before := seeded.LastUpdateTime

	if err := f.svc.ChangePassword(context.Background(), seeded.ID, "secret", "rotated"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.users.users[seeded.ID]
	if stored.Password != "rotated" {
		t.Fatalf("password = %q, want %q", stored.Password, "rotated")
	}
	if !stored.LastUpdateTime.After(before) {
		t.Fatalf("lastUpdateTime not refreshed")
	}
	if stored.LastUpdateTime.Location() != time.UTC {
		t.Fatalf("lastUpdateTime must be UTC")
	}
}

func TestChangePasswordMismatchIsConflict(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("leo", "leo@edu.test")

	err := f.svc.ChangePassword(context.Background(), seeded.ID, "wrong", "rotated")
	if !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	stored := f.users.users[seeded.ID]
	if stored.Password != "secret" {
		t.Fatalf("stored password must be unchanged, got %q", stored.Password)
	}
}

func TestChangePasswordUnknownUserIsNotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.ChangePassword(context.Background(), uuid.New(), "secret", "rotated")
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateProfileOverwritesAllThreeFields(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("iva", "iva@edu.test")

	updated, err := f.svc.UpdateProfile(context.Background(), seeded.ID, "Iva Braga", "+55 11 99999-0000", "390.533.447-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.FullName != "Iva Braga" || updated.PhoneNumber != "+55 11 99999-0000" || updated.CPF != "390.533.447-05" {
		t.Fatalf("profile fields not overwritten: %+v", updated)
	}
	if !updated.LastUpdateTime.After(seeded.LastUpdateTime) {
		t.Fatalf("lastUpdateTime not refreshed")
	}
}

func TestUpdateImage(t *testing.T) {
	f := newFixture()
	seeded := f.seedUser("gil", "gil@edu.test")

	updated, err := f.svc.UpdateImage(context.Background(), seeded.ID, "https://cdn.edu.test/gil.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ImageURL != "https://cdn.edu.test/gil.png" {
		t.Fatalf("imageURL = %q", updated.ImageURL)
	}

	if _, err := f.svc.UpdateImage(context.Background(), uuid.New(), "x"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND for unknown user, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture()
	f.seedUser("dup", "dup@edu.test")

	_, err := f.svc.Register(context.Background(), &domain.User{Username: "dup", Email: "new@edu.test", Password: "pw"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username conflict, got %v", err)
	}

	_, err = f.svc.Register(context.Background(), &domain.User{Username: "fresh", Email: "dup@edu.test", Password: "pw"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email conflict, got %v", err)
	}

	created, err := f.svc.Register(context.Background(), &domain.User{Username: "fresh", Email: "new@edu.test", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("expected assigned id")
	}
	if created.CreationTime.IsZero() || !created.CreationTime.Equal(created.LastUpdateTime) {
		t.Fatalf("timestamps not stamped: %+v", created)
	}
}

func TestListWithCourseFilterIntersectsFieldFilters(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()

	enrolledMatch := f.seedUser("student-one", "one@edu.test")
	f.seedLink(enrolledMatch.ID, courseID)

	enrolledOther := f.seedUser("teacher-two", "two@edu.test")
	f.seedLink(enrolledOther.ID, courseID)

	notEnrolled := f.seedUser("student-three", "three@edu.test")
	_ = notEnrolled

	spec := repository.NewSpecification().WithField(repository.FieldUsername, "student")
	page, err := f.svc.List(context.Background(), spec, &courseID, repository.PageRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Content) != 1 || page.Content[0].ID != enrolledMatch.ID {
		t.Fatalf("expected only the enrolled user matching the field filter, got %+v", page.Content)
	}
	if page.Page != 0 || page.Size != 10 {
		t.Fatalf("pagination defaults not applied: page=%d size=%d", page.Page, page.Size)
	}
}

func TestListWithoutCourseFilterUsesSpecAlone(t *testing.T) {
	f := newFixture()
	f.seedUser("alpha", "alpha@edu.test")
	f.seedUser("beta", "beta@edu.test")

	page, err := f.svc.List(context.Background(), repository.NewSpecification(), nil, repository.PageRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalElements != 2 {
		t.Fatalf("totalElements = %d, want 2", page.TotalElements)
	}
}
