package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// DefaultLanguage is assigned to accounts that do not state a preference.
const DefaultLanguage = "vi"

// User represents an authenticated account within the platform.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	Role                UserRole
	Language            string
	Timezone            string
	IsActive            bool
	EmailVerified       bool
	VerificationToken   string
	VerificationExpires *time.Time
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	OAuthProvider       string
	OAuthProviderID     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Locked reports whether the account is under a login lockout at the given time.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
