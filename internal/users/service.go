package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/monok8i/users-api/internal/security"
)

// NormalizeEmail applies Unicode case folding so that lookups, the
// application-level duplicate check and the storage unique index all
// agree on what the "same" email is.
func NormalizeEmail(email string) string {
	return cases.Fold().String(email)
}

// Service orchestrates user operations. Each mutating operation runs
// inside a single repository transaction; the service itself holds no
// state and is safe for concurrent use.
type Service struct {
	repo   Repository
	hasher security.PasswordHasher
}

// NewService constructs a Service.
func NewService(repo Repository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// GetByID fetches a user by primary key.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	spec := IDSpecification{ID: id}
	user, err := s.repo.Get(ctx, spec)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Spec: spec}
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail fetches a user by email. Absence is a valid result: the
// caller receives (nil, nil) when no user matches.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.Get(ctx, EmailSpecification{Email: NormalizeEmail(email)})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetWithRefreshSession fetches a user by email together with its
// refresh sessions, for token refresh flows.
func (s *Service) GetWithRefreshSession(ctx context.Context, email string) (*User, error) {
	spec := EmailSpecification{Email: NormalizeEmail(email)}
	user, err := s.repo.GetWithSessions(ctx, spec)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Spec: spec}
		}
		return nil, fmt.Errorf("get user with sessions: %w", err)
	}
	return user, nil
}

// List returns users in insertion order. Bounds are normalized to
// skip>=0 and 0<limit<=1000, defaulting to 0/100.
func (s *Service) List(ctx context.Context, skip, limit int) ([]User, error) {
	skip, limit = NormalizeListBounds(skip, limit)
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Create persists a new user. The plaintext password is replaced by
// its bcrypt hash before anything reaches storage. Email uniqueness is
// checked up front for a friendly error, but the storage unique index
// is the actual guarantee: a concurrent duplicate insert surfaces as
// AlreadyExistsError as well.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	email := NormalizeEmail(req.Email)

	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &AlreadyExistsError{Email: email}
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := User{Email: email, HashedPassword: hashed, IsActive: true}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}

	var created *User
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		created, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Update applies a partial update to an existing user. Only fields set
// in the request are changed. A new password is hashed before it is
// persisted; the plaintext never reaches the repository.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	spec := IDSpecification{ID: id}

	if req.Empty() {
		return s.GetByID(ctx, id)
	}

	updates := make(map[string]any)
	if req.Email != nil {
		updates["email"] = NormalizeEmail(*req.Email)
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["hashed_password"] = hashed
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsSuperuser != nil {
		updates["is_superuser"] = *req.IsSuperuser
	}

	var updated *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		updated, err = repo.Update(ctx, id, updates)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Spec: spec}
		}
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user and returns its last-known data.
func (s *Service) Delete(ctx context.Context, id int64) (*User, error) {
	spec := IDSpecification{ID: id}

	var deleted *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		deleted, err = repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Spec: spec}
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return deleted, nil
}

// Authenticate validates email/password credentials and returns the
// matching user. Failures are collapsed into ErrInvalidCredentials to
// avoid leaking which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
