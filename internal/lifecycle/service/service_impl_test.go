package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/lifecycle/domain"
	"github.com/clashcoffee/storefront/internal/lifecycle/repository"
	"github.com/clashcoffee/storefront/internal/lifecycle/stripe"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	subscriberrepository "github.com/clashcoffee/storefront/internal/subscriber/repository"
	subscriberservice "github.com/clashcoffee/storefront/internal/subscriber/service"
	"github.com/clashcoffee/storefront/internal/tier"
	"github.com/clashcoffee/storefront/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

type stubProvider struct {
	subscriptions map[string]paymentdomain.Subscription
	emails        map[string]string
}

func (p *stubProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	return "cus_stub", nil
}

func (p *stubProvider) CustomerEmail(ctx context.Context, customerRef string) (string, error) {
	return p.emails[customerRef], nil
}

func (p *stubProvider) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (paymentdomain.CheckoutSession, error) {
	return paymentdomain.CheckoutSession{Ref: "cs_stub", URL: "https://checkout.example/cs_stub"}, nil
}

func (p *stubProvider) GetSubscription(ctx context.Context, subscriptionRef string) (paymentdomain.Subscription, error) {
	sub, ok := p.subscriptions[subscriptionRef]
	if !ok {
		return paymentdomain.Subscription{}, paymentdomain.ErrNotFound
	}
	return sub, nil
}

func (p *stubProvider) ListActiveSubscriptions(ctx context.Context, customerRef string) ([]paymentdomain.Subscription, error) {
	return nil, nil
}

func (p *stubProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	return nil
}

func (p *stubProvider) ListProducts(ctx context.Context) ([]paymentdomain.Product, error) {
	return nil, nil
}

func newTestService(t *testing.T, provider *stubProvider) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := conn.AutoMigrate(&subscriberdomain.Subscriber{}, &domain.EventRecord{}); err != nil {
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
		DB:             conn,
		Log:            zap.NewNop(),
		GenID:          node,
		Repo:           repository.Provide(),
		SubscriberRepo: subscriberRepo,
		Subscribers:    subscribers,
		Provider:       provider,
		Adapter:        stripe.NewAdapter(webhookSecret),
	})
	return svc, conn
}

func sign(payload []byte) http.Header {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%s.%s", "1718000000", payload)))
	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=1718000000,v1=%s", hex.EncodeToString(mac.Sum(nil))))
	return headers
}

func checkoutPayload(eventID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"customer": "cus_1",
			"customer_details": {"email": "alice@example.com"},
			"subscription": "sub_1"
		}}
	}`, eventID))
}

func mustFindByEmail(t *testing.T, conn *gorm.DB, email string) *subscriberdomain.Subscriber {
	t.Helper()
	sub, err := subscriberrepository.Provide().FindByEmail(context.Background(), conn, email)
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if sub == nil {
		t.Fatalf("expected subscriber %s", email)
	}
	return sub
}

func TestIngestRejectsInvalidSignature(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{})

	payload := checkoutPayload("evt_1")
	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=1718000000,v1=deadbeef")

	err := svc.IngestWebhook(context.Background(), payload, headers)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	var count int64
	if err := svc.(*Service).db.Model(&domain.EventRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no stored events before verification, got %d", count)
	}
}

func TestCheckoutCompletedAssignsTier(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: mustPlanRef(t, tier.NeedCoffee), Status: paymentdomain.SubscriptionStatusActive},
		},
	}
	svc, conn := newTestService(t, provider)

	if err := svc.IngestWebhook(context.Background(), checkoutPayload("evt_1"), sign(checkoutPayload("evt_1"))); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	sub := mustFindByEmail(t, conn, "alice@example.com")
	if sub.SubscriptionTier == nil || *sub.SubscriptionTier != tier.NeedCoffee {
		t.Fatalf("expected tier %s, got %v", tier.NeedCoffee, sub.SubscriptionTier)
	}
	if sub.ExternalCustomerRef == nil || *sub.ExternalCustomerRef != "cus_1" {
		t.Fatalf("expected customer ref cus_1, got %v", sub.ExternalCustomerRef)
	}
	if sub.IsNewSubscriber {
		t.Fatal("expected is_new_subscriber cleared after first tier assignment")
	}
	if sub.SubscriptionStatus == nil || *sub.SubscriptionStatus != "active" {
		t.Fatalf("expected status active, got %v", sub.SubscriptionStatus)
	}
}

func checkoutPayloadWithoutEmail(eventID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"customer": "cus_1",
			"subscription": "sub_1"
		}}
	}`, eventID))
}

func TestCheckoutCompletedResolvesMissingEmail(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: mustPlanRef(t, tier.NeedCoffee), Status: paymentdomain.SubscriptionStatusActive},
		},
		emails: map[string]string{"cus_1": "bob@example.com"},
	}
	svc, conn := newTestService(t, provider)

	payload := checkoutPayloadWithoutEmail("evt_1")
	if err := svc.IngestWebhook(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	sub := mustFindByEmail(t, conn, "bob@example.com")
	if sub.SubscriptionTier == nil || *sub.SubscriptionTier != tier.NeedCoffee {
		t.Fatalf("expected tier %s on the resolved account, got %v", tier.NeedCoffee, sub.SubscriptionTier)
	}
	if sub.ExternalCustomerRef == nil || *sub.ExternalCustomerRef != "cus_1" {
		t.Fatalf("expected customer ref cus_1, got %v", sub.ExternalCustomerRef)
	}
}

func TestCheckoutCompletedUnresolvableEmail(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: mustPlanRef(t, tier.NeedCoffee), Status: paymentdomain.SubscriptionStatusActive},
		},
	}
	svc, conn := newTestService(t, provider)

	payload := checkoutPayloadWithoutEmail("evt_1")
	err := svc.IngestWebhook(context.Background(), payload, sign(payload))
	if !errors.Is(err, domain.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}

	stored, err := repository.Provide().FindEvent(context.Background(), conn, "stripe", "evt_1")
	if err != nil {
		t.Fatalf("find event: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored event record")
	}
	if stored.ProcessedAt != nil {
		t.Fatal("expected event to stay unprocessed for redelivery")
	}
}

func TestRedeliveredEventIsNotReapplied(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: mustPlanRef(t, tier.NeedCoffee), Status: paymentdomain.SubscriptionStatusActive},
		},
	}
	svc, _ := newTestService(t, provider)

	payload := checkoutPayload("evt_1")
	if err := svc.IngestWebhook(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	err := svc.IngestWebhook(context.Background(), payload, sign(payload))
	if !errors.Is(err, domain.ErrEventAlreadyProcessed) {
		t.Fatalf("expected ErrEventAlreadyProcessed, got %v", err)
	}
}

func TestUnmappedPlanRefLeavesEventUnprocessed(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: "price_unknown", Status: paymentdomain.SubscriptionStatusActive},
		},
	}
	svc, conn := newTestService(t, provider)

	payload := checkoutPayload("evt_1")
	err := svc.IngestWebhook(context.Background(), payload, sign(payload))
	if !errors.Is(err, domain.ErrUnmappedPlanRef) {
		t.Fatalf("expected ErrUnmappedPlanRef, got %v", err)
	}

	stored, err := repository.Provide().FindEvent(context.Background(), conn, "stripe", "evt_1")
	if err != nil {
		t.Fatalf("find event: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored event record")
	}
	if stored.ProcessedAt != nil {
		t.Fatal("expected event to stay unprocessed for redelivery")
	}
}

func TestSubscriptionDeletedClearsTier(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: mustPlanRef(t, tier.NeedCoffee), Status: paymentdomain.SubscriptionStatusActive},
		},
	}
	svc, conn := newTestService(t, provider)

	payload := checkoutPayload("evt_1")
	if err := svc.IngestWebhook(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("checkout ingest: %v", err)
	}

	deleted := []byte(`{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "canceled"}}
	}`)
	if err := svc.IngestWebhook(context.Background(), deleted, sign(deleted)); err != nil {
		t.Fatalf("deleted ingest: %v", err)
	}

	sub := mustFindByEmail(t, conn, "alice@example.com")
	if sub.SubscriptionTier != nil {
		t.Fatalf("expected tier cleared, got %v", *sub.SubscriptionTier)
	}
	if sub.SubscriptionStatus == nil || *sub.SubscriptionStatus != "canceled" {
		t.Fatalf("expected status canceled, got %v", sub.SubscriptionStatus)
	}
	if sub.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end cleared")
	}
}

func TestSubscriptionUpdatedConvergesToProviderState(t *testing.T) {
	provider := &stubProvider{
		subscriptions: map[string]paymentdomain.Subscription{
			"sub_1": {Ref: "sub_1", PlanRef: mustPlanRef(t, tier.NeedCoffee), Status: paymentdomain.SubscriptionStatusActive},
		},
	}
	svc, conn := newTestService(t, provider)

	payload := checkoutPayload("evt_1")
	if err := svc.IngestWebhook(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("checkout ingest: %v", err)
	}

	// The event snapshot still names the old plan. The provider is now on a
	// different plan with a pending cancellation; its state must win.
	provider.subscriptions["sub_1"] = paymentdomain.Subscription{
		Ref:               "sub_1",
		PlanRef:           mustPlanRef(t, tier.Clashaholic),
		Status:            paymentdomain.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
	}

	updated := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": "active",
			"items": {"data": [{"price": {"id": %q}}]}
		}}
	}`, mustPlanRef(t, tier.NeedCoffee)))
	if err := svc.IngestWebhook(context.Background(), updated, sign(updated)); err != nil {
		t.Fatalf("updated ingest: %v", err)
	}

	sub := mustFindByEmail(t, conn, "alice@example.com")
	if sub.SubscriptionTier == nil || *sub.SubscriptionTier != tier.Clashaholic {
		t.Fatalf("expected provider plan to win, got %v", sub.SubscriptionTier)
	}
	if !sub.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end from provider state")
	}
}

func TestSubscriptionUpdatedForUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{})

	updated := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_1", "customer": "cus_unknown", "status": "active"}}
	}`)
	err := svc.IngestWebhook(context.Background(), updated, sign(updated))
	if !errors.Is(err, domain.ErrSubscriberNotFound) {
		t.Fatalf("expected ErrSubscriberNotFound, got %v", err)
	}
}

func TestIgnoredEventTypeIsAccepted(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{})

	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	if err := svc.IngestWebhook(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("expected ignored event to be accepted, got %v", err)
	}
}

func mustPlanRef(t *testing.T, id tier.Tier) string {
	t.Helper()
	ref, err := tier.PlanRef(id)
	if err != nil {
		t.Fatalf("plan ref for %s: %v", id, err)
	}
	return ref
}
