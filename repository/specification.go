package repository

import (
	"strings"

	"github.com/google/uuid"

	"github.com/edustack/authuser/domain"
)

// Field names a filterable user attribute. Values double as the column
// names the Postgres repository compiles criteria against.
type Field string

const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldFullName Field = "full_name"
	FieldCPF      Field = "cpf"
	FieldStatus   Field = "user_status"
	FieldRole     Field = "user_type"
)

// Criterion is a single field filter. Free-text fields (username, email,
// full name) match case-insensitive substrings; the rest match exactly.
type Criterion struct {
	Field Field
	Value string
}

// Partial reports whether the criterion uses substring matching.
func (c Criterion) Partial() bool {
	switch c.Field {
	case FieldUsername, FieldEmail, FieldFullName:
		return true
	default:
		return false
	}
}

// Specification is an immutable conjunctive predicate over users: every
// criterion must hold, and the user must be linked to every listed course.
// The zero value matches all users.
type Specification struct {
	criteria  []Criterion
	courseIDs []uuid.UUID
}

// NewSpecification returns an empty specification.
func NewSpecification() Specification {
	return Specification{}
}

// WithField returns a copy extended with one field criterion. Blank
// values impose no constraint.
func (s Specification) WithField(field Field, value string) Specification {
	if value == "" {
		return s
	}
	out := s.clone()
	out.criteria = append(out.criteria, Criterion{Field: field, Value: value})
	return out
}

// WithCourse returns a copy requiring a link to the given course.
func (s Specification) WithCourse(courseID uuid.UUID) Specification {
	if courseID == uuid.Nil {
		return s
	}
	out := s.clone()
	out.courseIDs = append(out.courseIDs, courseID)
	return out
}

// And combines two specifications conjunctively. Neither input is
// mutated, and the order of combination does not change the result set.
func (s Specification) And(other Specification) Specification {
	out := s.clone()
	out.criteria = append(out.criteria, other.criteria...)
	out.courseIDs = append(out.courseIDs, other.courseIDs...)
	return out
}

// Criteria returns the field criteria in a stable order.
func (s Specification) Criteria() []Criterion {
	return append([]Criterion(nil), s.criteria...)
}

// CourseIDs returns the course link constraints.
func (s Specification) CourseIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), s.courseIDs...)
}

// IsEmpty reports whether the specification constrains anything.
func (s Specification) IsEmpty() bool {
	return len(s.criteria) == 0 && len(s.courseIDs) == 0
}

// Matches evaluates the predicate in memory against a user and its course
// links. The Postgres repository compiles the same semantics to SQL.
func (s Specification) Matches(user domain.User, links []domain.UserCourseLink) bool {
	for _, c := range s.criteria {
		if !matchField(c, user) {
			return false
		}
	}
	for _, courseID := range s.courseIDs {
		if !hasLink(links, user.ID, courseID) {
			return false
		}
	}
	return true
}

func (s Specification) clone() Specification {
	return Specification{
		criteria:  append([]Criterion(nil), s.criteria...),
		courseIDs: append([]uuid.UUID(nil), s.courseIDs...),
	}
}

func matchField(c Criterion, user domain.User) bool {
	actual := fieldValue(c.Field, user)
	if c.Partial() {
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	}
	return actual == c.Value
}

func fieldValue(field Field, user domain.User) string {
	switch field {
	case FieldUsername:
		return user.Username
	case FieldEmail:
		return user.Email
	case FieldFullName:
		return user.FullName
	case FieldCPF:
		return user.CPF
	case FieldStatus:
		return user.Status
	case FieldRole:
		return user.Role
	default:
		return ""
	}
}

func hasLink(links []domain.UserCourseLink, userID, courseID uuid.UUID) bool {
	for _, link := range links {
		if link.UserID == userID && link.CourseID == courseID {
			return true
		}
	}
	return false
}
