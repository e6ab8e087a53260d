package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/clock"
	"github.com/clashcoffee/storefront/internal/delivery/domain"
	"github.com/clashcoffee/storefront/internal/delivery/repository"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	subscriberrepository "github.com/clashcoffee/storefront/internal/subscriber/repository"
	"github.com/clashcoffee/storefront/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, fake *clock.FakeClock) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := conn.AutoMigrate(&subscriberdomain.Subscriber{}, &domain.DeliveryLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:             conn,
		Log:            zap.NewNop(),
		GenID:          node,
		Clock:          fake,
		Repo:           repository.Provide(),
		SubscriberRepo: subscriberrepository.Provide(),
	})
	return svc, conn
}

func seedSubscriber(t *testing.T, conn *gorm.DB) *subscriberdomain.Subscriber {
	t.Helper()

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	now := time.Now().UTC()
	sub := subscriberdomain.Subscriber{
		ID:        node.Generate(),
		Email:     "alice@example.com",
		Role:      subscriberdomain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := conn.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}
	return &sub
}

func TestLogDeliveryUpdatesLastDeliveryMarker(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, conn := newTestService(t, clock.NewFakeClock(now))
	sub := seedSubscriber(t, conn)

	entry, err := svc.Log(context.Background(), domain.LogRequest{
		SubscriberID: sub.ID.String(),
		Items:        "2x Midnight Roast, 1x Clash Mug",
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !entry.ShippedAt.Equal(now) {
		t.Fatalf("expected shipped_at defaulted to now, got %v", entry.ShippedAt)
	}

	stored, err := subscriberrepository.Provide().FindByID(context.Background(), conn, sub.ID)
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if stored.LastDeliveryAt == nil || !stored.LastDeliveryAt.Equal(now) {
		t.Fatalf("expected last_delivery_at updated, got %v", stored.LastDeliveryAt)
	}
}

func TestLogDeliveryRejectsEmptyItems(t *testing.T) {
	svc, conn := newTestService(t, clock.NewFakeClock(time.Now().UTC()))
	sub := seedSubscriber(t, conn)

	_, err := svc.Log(context.Background(), domain.LogRequest{
		SubscriberID: sub.ID.String(),
		Items:        "   ",
	})
	if !errors.Is(err, domain.ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got %v", err)
	}
}

func TestLogDeliveryRejectsFutureShipDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, conn := newTestService(t, clock.NewFakeClock(now))
	sub := seedSubscriber(t, conn)

	for _, ahead := range []time.Duration{time.Second, time.Minute, 2 * time.Hour} {
		_, err := svc.Log(context.Background(), domain.LogRequest{
			SubscriberID: sub.ID.String(),
			Items:        "1x Midnight Roast",
			ShippedAt:    now.Add(ahead),
		})
		if !errors.Is(err, domain.ErrFutureShipDate) {
			t.Fatalf("shipped %s ahead: expected ErrFutureShipDate, got %v", ahead, err)
		}
	}

	var count int64
	if err := conn.Model(&domain.DeliveryLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no log entries, got %d", count)
	}
}

func TestLogDeliveryUnknownSubscriber(t *testing.T) {
	svc, _ := newTestService(t, clock.NewFakeClock(time.Now().UTC()))

	_, err := svc.Log(context.Background(), domain.LogRequest{
		SubscriberID: "123456789",
		Items:        "1x Midnight Roast",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusForTracksDeliveryHistory(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(start)
	svc, conn := newTestService(t, fake)
	sub := seedSubscriber(t, conn)

	status, err := svc.StatusFor(context.Background(), sub.ID.String())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != domain.StatusNone {
		t.Fatalf("expected none before any delivery, got %s", status)
	}

	if _, err := svc.Log(context.Background(), domain.LogRequest{
		SubscriberID: sub.ID.String(),
		Items:        "1x Midnight Roast",
	}); err != nil {
		t.Fatalf("log: %v", err)
	}

	status, err = svc.StatusFor(context.Background(), sub.ID.String())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != domain.StatusRecent {
		t.Fatalf("expected recent after delivery, got %s", status)
	}

	fake.Advance(45 * 24 * time.Hour)
	status, err = svc.StatusFor(context.Background(), sub.ID.String())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != domain.StatusOverdue {
		t.Fatalf("expected overdue after the cycle lapsed, got %s", status)
	}
}
