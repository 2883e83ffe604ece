package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User represents a managed account. The password hash is never
// serialized in API responses.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// RefreshSessions is populated only by GetWithRefreshSession.
	RefreshSessions []RefreshSession `json:"refresh_sessions,omitempty"`
}

// RefreshSession is a persisted refresh-token record attached to a user.
type RefreshSession struct {
	ID           uuid.UUID `json:"id"`
	UserID       int64     `json:"user_id"`
	RefreshToken uuid.UUID `json:"refresh_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IP           string    `json:"ip,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s RefreshSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Specification identifies exactly one user for lookup or mutation.
// It travels inside NotFoundError so callers can produce descriptive
// failure messages.
type Specification interface {
	Describe() string
}

// IDSpecification locates a user by primary key.
type IDSpecification struct {
	ID int64
}

// Describe renders the lookup key.
func (s IDSpecification) Describe() string {
	return fmt.Sprintf("id=%d", s.ID)
}

// EmailSpecification locates a user by email.
type EmailSpecification struct {
	Email string
}

// Describe renders the lookup key.
func (s EmailSpecification) Describe() string {
	return "email=" + s.Email
}
