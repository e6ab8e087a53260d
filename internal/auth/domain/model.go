// Package domain contains session types for cookie authentication.
// Accounts themselves live in the subscriber store.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
)

// Session is a persisted login session. Only the SHA-256 of the opaque
// token is stored.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	SubscriberID     snowflake.ID `gorm:"column:subscriber_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

type SignupRequest struct {
	Email    string
	Password string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Subscriber subscriberdomain.Subscriber
	RawToken   string
	ExpiresAt  time.Time
	SessionID  snowflake.ID
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error
	RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error
}

type Service interface {
	// Signup creates a password credential for an account, creating the
	// account when it does not exist yet, and opens a session.
	Signup(ctx context.Context, req SignupRequest) (*LoginResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a raw session token to its subscriber.
	Authenticate(ctx context.Context, rawToken string) (*subscriberdomain.Subscriber, error)
}
