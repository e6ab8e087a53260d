package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/auth/domain"
	"github.com/clashcoffee/storefront/internal/auth/repository"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	subscriberrepository "github.com/clashcoffee/storefront/internal/subscriber/repository"
	subscriberservice "github.com/clashcoffee/storefront/internal/subscriber/service"
	"github.com/clashcoffee/storefront/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, subscriberdomain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := conn.AutoMigrate(&subscriberdomain.Subscriber{}, &domain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	subscriberRepo := subscriberrepository.Provide()
	subscribers := subscriberservice.New(subscriberservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  subscriberRepo,
	})

	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Sessions:    repository.New(conn),
		Subscribers: subscriberRepo,
	})
	return svc, subscribers, conn
}

func TestSignupThenAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "Alice@Example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if result.Subscriber.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", result.Subscriber.Email)
	}
	if result.RawToken == "" {
		t.Fatal("expected session token")
	}

	sub, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sub.ID != result.Subscriber.ID {
		t.Fatalf("expected subscriber %s, got %s", result.Subscriber.ID, sub.ID)
	}
}

func TestSignupRejectsExistingCredential(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "another-password",
	})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestSignupAttachesCredentialToCheckoutAccount(t *testing.T) {
	svc, subscribers, _ := newTestService(t)

	created, err := subscribers.GetOrCreateByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("create passwordless account: %v", err)
	}

	result, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if result.Subscriber.ID != created.ID {
		t.Fatal("expected credential attached to the existing account")
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "short",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginPasswordlessAccount(t *testing.T) {
	svc, subscribers, _ := newTestService(t)

	if _, err := subscribers.GetOrCreateByEmail(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "anything-at-all",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	if !errors.Is(err, domain.ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "not-a-real-token")
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}
