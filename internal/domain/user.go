package domain

import "context"

// Role constants. Every account implicitly holds RoleUser; RoleAdmin is
// granted explicitly and unlocks catalog management.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a platform account.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`    // unique
	PasswordHash string   `json:"-"`        // bcrypt, never returned in API
	Roles        []string `json:"roles"`
	IsVerified   bool     `json:"isVerified"`
	AuditFields
}

// HasRole reports whether the user holds the given role. RoleUser is always
// implied for an existing account.
func (u *User) HasRole(role string) bool {
	if role == RoleUser {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}
