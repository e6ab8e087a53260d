package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/auth/domain"
	"github.com/clashcoffee/storefront/internal/auth/password"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Sessions    domain.SessionRepository
	Subscribers subscriberdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	sessions    domain.SessionRepository
	subscribers subscriberdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("auth.service"),
		genID:       p.GenID,
		sessions:    p.Sessions,
		subscribers: p.Subscribers,
	}
}

func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.subscribers.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var subscriber *subscriberdomain.Subscriber
	switch {
	case existing == nil:
		subscriber = &subscriberdomain.Subscriber{
			ID:              s.genID.Generate(),
			Email:           email,
			Role:            subscriberdomain.RoleUser,
			PasswordHash:    &hashed,
			IsNewSubscriber: true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.subscribers.Insert(ctx, s.db, subscriber); err != nil {
			return nil, err
		}
	case existing.PasswordHash != nil:
		return nil, domain.ErrAccountExists
	default:
		// Account created earlier through checkout; attach the credential.
		existing.PasswordHash = &hashed
		if err := s.subscribers.Update(ctx, s.db, existing); err != nil {
			return nil, err
		}
		subscriber = existing
	}

	return s.openSession(ctx, subscriber, "", "")
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	subscriber, err := s.subscribers.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if subscriber == nil || subscriber.PasswordHash == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !password.Verify(req.Password, *subscriber.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, subscriber, req.UserAgent, req.IPAddress)
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessions.RevokeSession(ctx, session.ID, time.Now().UTC())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*subscriberdomain.Subscriber, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := time.Now().UTC()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	subscriber, err := s.subscribers.FindByID(ctx, s.db, session.SubscriberID)
	if err != nil {
		return nil, err
	}
	if subscriber == nil {
		return nil, domain.ErrInvalidSession
	}

	if err := s.sessions.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}

	return subscriber, nil
}

func (s *Service) openSession(ctx context.Context, subscriber *subscriberdomain.Subscriber, userAgent, ipAddress string) (*domain.LoginResult, error) {
	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		SubscriberID:     subscriber.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(userAgent),
		IPAddress:        strings.TrimSpace(ipAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		Subscriber: *subscriber,
		RawToken:   rawToken,
		ExpiresAt:  session.ExpiresAt,
		SessionID:  session.ID,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
