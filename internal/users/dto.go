package users

// Defaults for list pagination bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// CreateUserRequest carries the fields accepted when creating a user.
// The plaintext password never reaches the repository; the service
// replaces it with a hash before persisting.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	IsActive    *bool  `json:"is_active" validate:"omitempty"`
	IsSuperuser *bool  `json:"is_superuser" validate:"omitempty"`
}

// UpdateUserRequest carries a partial update. Only non-nil fields are
// applied; everything else is left unmodified.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    *string `json:"password" validate:"omitempty,min=8"`
	IsActive    *bool   `json:"is_active" validate:"omitempty"`
	IsSuperuser *bool   `json:"is_superuser" validate:"omitempty"`
}

// Empty reports whether the request would change nothing.
func (r UpdateUserRequest) Empty() bool {
	return r.Email == nil && r.Password == nil && r.IsActive == nil && r.IsSuperuser == nil
}

// NormalizeListBounds clamps skip/limit to sane pagination values.
func NormalizeListBounds(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return skip, limit
}
