package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monok8i/users-api/internal/platform/db"
)

// Repository defines persistence operations for users. Implementations
// translate storage-level absence into ErrNotFound and email unique
// violations into ErrAlreadyExists.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, spec Specification) (*User, error)
	GetWithSessions(ctx context.Context, spec Specification) (*User, error)
	List(ctx context.Context, skip, limit int) ([]User, error)
	Create(ctx context.Context, user User) (*User, error)
	Update(ctx context.Context, id int64, updates map[string]any) (*User, error)
	Delete(ctx context.Context, id int64) (*User, error)
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx runs fn against a repository bound to a single transaction,
// committing on success and rolling back on error.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const userColumns = `id, email, hashed_password, is_active, is_superuser, created_at, updated_at`

func specPredicate(spec Specification) (string, any, error) {
	switch s := spec.(type) {
	case IDSpecification:
		return "id = $1", s.ID, nil
	case EmailSpecification:
		return "lower(email) = lower($1)", s.Email, nil
	default:
		return "", nil, fmt.Errorf("users: unsupported specification %T", spec)
	}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Get fetches the single user matching the specification.
func (r *repository) Get(ctx context.Context, spec Specification) (*User, error) {
	predicate, arg, err := specPredicate(spec)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s`, userColumns, predicate)
	return scanUser(r.db.QueryRow(ctx, query, arg))
}

// GetWithSessions fetches a user together with its refresh sessions.
func (r *repository) GetWithSessions(ctx context.Context, spec Specification) (*User, error) {
	user, err := r.Get(ctx, spec)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, refresh_token, user_agent, ip, expires_at, created_at
		FROM refresh_sessions
		WHERE user_id = $1
		ORDER BY created_at
	`, user.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s RefreshSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		user.RefreshSessions = append(user.RefreshSessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns users in insertion order, bounded by skip and limit.
func (r *repository) List(ctx context.Context, skip, limit int) ([]User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id OFFSET $1 LIMIT $2`, userColumns)
	rows, err := r.db.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, limit)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user and returns the persisted record.
func (r *repository) Create(ctx context.Context, user User) (*User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (email, hashed_password, is_active, is_superuser)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, userColumns)
	created, err := scanUser(r.db.QueryRow(ctx, query, user.Email, user.HashedPassword, user.IsActive, user.IsSuperuser))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &AlreadyExistsError{Email: user.Email}
		}
		return nil, err
	}
	return created, nil
}

// Update applies the given column updates and returns the new record.
// The updates map holds column names produced by the service layer,
// never raw request input.
func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) (*User, error) {
	query := "UPDATE users SET updated_at = now()"
	var args []any
	argPos := 1

	for _, column := range []string{"email", "hashed_password", "is_active", "is_superuser"} {
		if v, ok := updates[column]; ok {
			query += fmt.Sprintf(", %s = $%d", column, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argPos, userColumns)
	args = append(args, id)

	updated, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			email, _ := updates["email"].(string)
			return nil, &AlreadyExistsError{Email: email}
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a user and returns its last-known data.
func (r *repository) Delete(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`DELETE FROM users WHERE id = $1 RETURNING %s`, userColumns)
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// DeleteExpiredSessions removes refresh sessions past their expiry and
// reports how many rows were deleted.
func (r *repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
