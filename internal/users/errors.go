package users

import "errors"

// Sentinels for errors.Is matching across layers.
var (
	ErrNotFound           = errors.New("user not found")
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NotFoundError reports that no user matched the given specification.
type NotFoundError struct {
	Spec Specification
}

func (e *NotFoundError) Error() string {
	return "user not found: " + e.Spec.Describe()
}

// Is matches the ErrNotFound sentinel.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError reports an email collision on create or update.
type AlreadyExistsError struct {
	Email string
}

func (e *AlreadyExistsError) Error() string {
	return "user already exists: email=" + e.Email
}

// Is matches the ErrAlreadyExists sentinel.
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}
