package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account on the course platform. Passwords are stored
// and compared as given; introducing hashing must also revisit the
// old-password conflict check in the lifecycle service.
type User struct {
	ID             uuid.UUID `json:"userId"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	PhoneNumber    string    `json:"phoneNumber,omitempty"`
	CPF            string    `json:"cpf,omitempty"`
	Password       string    `json:"-"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Status         string    `json:"userStatus"`
	Role           string    `json:"userType"`
	CreationTime   time.Time `json:"creationDate"`
	LastUpdateTime time.Time `json:"lastUpdateDate"`
}

// User status and role values.
const (
	StatusActive  = "ACTIVE"
	StatusBlocked = "BLOCKED"

	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleStudent    = "STUDENT"
)

func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

// Touch refreshes the last-update stamp. Every mutation performed through
// the lifecycle service calls this before persisting.
func (u *User) Touch(now time.Time) {
	u.LastUpdateTime = now.UTC()
}

// UserCourseLink is the local record of a user's enrollment in a course.
// The course service keeps its own view of the same relationship; deleting
// a user removes these rows first and then tells the course service.
type UserCourseLink struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CourseID  uuid.UUID `json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserPage is one slice of a filtered user listing.
type UserPage struct {
	Content       []User `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
}

func (p UserPage) IsEmpty() bool {
	return len(p.Content) == 0
}
