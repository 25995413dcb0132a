package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edustack/authuser/domain"
	"github.com/edustack/authuser/repository"
)

const userColumns = `user_id, username, email, full_name, phone_number, cpf, password, image_url, user_status, user_type, creation_date, last_update_date`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanUser(row)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context, spec repository.Specification, page repository.PageRequest) (domain.UserPage, error) {
	page = page.Normalize()
	where, args := compileSpec(spec)

	countQuery := `SELECT COUNT(*) FROM users u` + where
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.UserPage{}, err
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM users u%s ORDER BY u.%s %s LIMIT $%d OFFSET $%d`,
		prefixColumns("u"), where, page.SortBy, page.Direction, len(args)+1, len(args)+2,
	)
	rows, err := r.pool.Query(ctx, listQuery, append(args, page.Size, page.Offset())...)
	if err != nil {
		return domain.UserPage{}, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return domain.UserPage{}, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return domain.UserPage{}, err
	}

	return domain.UserPage{
		Content:       users,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    page.TotalPages(total),
	}, nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	// Timestamps are stamped by the lifecycle service, not the database.
	const query = `
	INSERT INTO users (user_id, username, email, full_name, phone_number, cpf, password, image_url, user_status, user_type, creation_date, last_update_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (user_id) DO UPDATE
	SET username = EXCLUDED.username,
		email = EXCLUDED.email,
		full_name = EXCLUDED.full_name,
		phone_number = EXCLUDED.phone_number,
		cpf = EXCLUDED.cpf,
		password = EXCLUDED.password,
		image_url = EXCLUDED.image_url,
		user_status = EXCLUDED.user_status,
		user_type = EXCLUDED.user_type,
		last_update_date = EXCLUDED.last_update_date
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PhoneNumber,
		user.CPF,
		user.Password,
		user.ImageURL,
		user.Status,
		user.Role,
		user.CreationTime,
		user.LastUpdateTime,
	)
	return err
}

func (r *userRepository) Delete(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	const query = `DELETE FROM users WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, query, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// compileSpec renders the specification as a WHERE clause plus its
// positional arguments. Semantics mirror Specification.Matches.
func compileSpec(spec repository.Specification) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	for _, c := range spec.Criteria() {
		args = append(args, c.Value)
		if c.Partial() {
			clauses = append(clauses, fmt.Sprintf(`u.%s ILIKE '%%' || $%d || '%%'`, c.Field, len(args)))
		} else {
			clauses = append(clauses, fmt.Sprintf(`u.%s = $%d`, c.Field, len(args)))
		}
	}

	for _, courseID := range spec.CourseIDs() {
		args = append(args, courseID)
		clauses = append(clauses, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM users_courses uc WHERE uc.user_id = u.user_id AND uc.course_id = $%d)`,
			len(args),
		))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func prefixColumns(alias string) string {
	cols := strings.Split(userColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PhoneNumber,
		&user.CPF,
		&user.Password,
		&user.ImageURL,
		&user.Status,
		&user.Role,
		&user.CreationTime,
		&user.LastUpdateTime,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
