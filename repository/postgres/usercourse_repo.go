package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edustack/authuser/domain"
	"github.com/edustack/authuser/repository"
)

type userCourseRepository struct {
	pool *pgxpool.Pool
}

// NewUserCourseRepository returns a Postgres-backed implementation of
// UserCourseRepository.
func NewUserCourseRepository(pool *pgxpool.Pool) repository.UserCourseRepository {
	return &userCourseRepository{pool: pool}
}

func (r *userCourseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserCourseLink, error) {
	const query = `
	SELECT id, user_id, course_id, created_at
	FROM users_courses
	WHERE user_id = $1
	ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.UserCourseLink
	for rows.Next() {
		var link domain.UserCourseLink
		if err := rows.Scan(&link.ID, &link.UserID, &link.CourseID, &link.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *userCourseRepository) DeleteAll(ctx context.Context, links []domain.UserCourseLink) error {
	if len(links) == 0 {
		return nil
	}

	ids := make([]string, len(links))
	for i, link := range links {
		ids[i] = link.ID.String()
	}

	const query = `DELETE FROM users_courses WHERE id = ANY($1::uuid[])`
	_, err := r.pool.Exec(ctx, query, ids)
	return err
}
