package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the member model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Withdrawn reports whether the member soft-deleted their account.
func (u *User) Withdrawn() bool {
	return u != nil && u.DeletedAt != nil
}

// PasswordResetToken is a single-use reset credential. There is no status
// column: the state is derived from the four timestamps on read, so the
// record can never disagree with itself. Rows are kept as an audit trail
// and never physically deleted.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	UsedAt        *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
	InvalidatedAt *time.Time `bun:"invalidated_at,nullzero" json:"invalidated_at,omitempty"`
}

// StatusAt derives the token state at the given instant.
func (t *PasswordResetToken) StatusAt(now time.Time) ResetTokenStatus {
	switch {
	case t == nil:
		return ResetTokenInvalidated
	case t.UsedAt != nil:
		return ResetTokenUsed
	case t.InvalidatedAt != nil:
		return ResetTokenInvalidated
	case now.After(t.ExpiresAt):
		return ResetTokenExpired
	default:
		return ResetTokenActive
	}
}

// PasswordHistory is an append-only record of prior password hashes,
// kept to support reuse-prevention policy.
type PasswordHistory struct {
	bun.BaseModel `bun:"table:password_history,alias:pwh"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

const resetTokenEntropy = 32

// NewResetTokenValue generates a random, unguessable opaque token value.
func NewResetTokenValue() (string, error) {
	buf := make([]byte, resetTokenEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
