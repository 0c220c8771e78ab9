package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role for registered accounts
	RoleUser UserRole = "user"
	// RoleAdmin can manage every account
	RoleAdmin UserRole = "admin"
)

// ParseRole maps a raw string to a known role
func ParseRole(role string) (UserRole, bool) {
	switch role {
	case RoleUser, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// User is the account model. Soft delete is expressed through IsActive:
// inactive rows stay in the table but are excluded from normal lookups
// and listings.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	FirstName    string    `bun:"first_name,notnull" json:"first_name"`
	LastName     string    `bun:"last_name,notnull" json:"last_name"`
	Role         UserRole  `bun:"user_role,notnull,default:'user'" json:"role"`

	IsActive        bool `bun:"is_active,notnull,default:true" json:"is_active"`
	IsEmailVerified bool `bun:"is_email_verified,notnull,default:false" json:"is_email_verified"`

	// Single use token pairs. At most one of each pair is live at a time;
	// issuing a new token overwrites the previous one.
	EmailVerificationToken   *string    `bun:"email_verification_token,nullzero" json:"-"`
	EmailVerificationExpires *time.Time `bun:"email_verification_expires,nullzero" json:"-"`
	PasswordResetToken       *string    `bun:"password_reset_token,nullzero" json:"-"`
	PasswordResetExpires     *time.Time `bun:"password_reset_expires,nullzero" json:"-"`

	LoggedInAt *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt  *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt  *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// FullName joins the name fields for presentation use
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasRole reports whether the stored role matches exactly. Gates check
// this over the token claim so demotions apply without waiting for the
// token to expire.
func (u *User) HasRole(role string) bool {
	return u != nil && string(u.Role) == role
}

// HasLiveVerificationToken reports whether the verification pair is set and unexpired
func (u *User) HasLiveVerificationToken(now time.Time) bool {
	return u.EmailVerificationToken != nil &&
		u.EmailVerificationExpires != nil &&
		u.EmailVerificationExpires.After(now)
}

// HasLiveResetToken reports whether the reset pair is set and unexpired
func (u *User) HasLiveResetToken(now time.Time) bool {
	return u.PasswordResetToken != nil &&
		u.PasswordResetExpires != nil &&
		u.PasswordResetExpires.After(now)
}

// BlacklistedToken is a revoked access token. Rows are append only; once
// ExpiresAt passes the token is rejected on expiry grounds anyway and the
// row becomes prunable garbage.
type BlacklistedToken struct {
	bun.BaseModel `bun:"table:blacklisted_tokens,alias:blt"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Token     string     `bun:"token,notnull,unique" json:"token"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	ExpiresAt time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	Reason    string     `bun:"reason" json:"reason,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
