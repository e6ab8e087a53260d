package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/product/domain"
	"github.com/clashcoffee/storefront/internal/product/repository"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	"github.com/clashcoffee/storefront/pkg/db"
	"go.uber.org/zap"
)

type stubProvider struct {
	products []paymentdomain.Product
}

func (p *stubProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	return "", paymentdomain.ErrProviderUnavailable
}

func (p *stubProvider) CustomerEmail(ctx context.Context, customerRef string) (string, error) {
	return "", paymentdomain.ErrNotFound
}

func (p *stubProvider) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (paymentdomain.CheckoutSession, error) {
	return paymentdomain.CheckoutSession{}, paymentdomain.ErrProviderUnavailable
}

func (p *stubProvider) GetSubscription(ctx context.Context, subscriptionRef string) (paymentdomain.Subscription, error) {
	return paymentdomain.Subscription{}, paymentdomain.ErrNotFound
}

func (p *stubProvider) ListActiveSubscriptions(ctx context.Context, customerRef string) ([]paymentdomain.Subscription, error) {
	return nil, nil
}

func (p *stubProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	return nil
}

func (p *stubProvider) ListProducts(ctx context.Context) ([]paymentdomain.Product, error) {
	return p.products, nil
}

func newTestService(t *testing.T, provider *stubProvider) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.Product{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Provider: provider,
	})
}

func TestSyncUpsertsByProviderRef(t *testing.T) {
	provider := &stubProvider{products: []paymentdomain.Product{
		{Ref: "prod_1", Name: "Midnight Roast", Description: "Dark and heavy", Active: true},
		{Ref: "prod_2", Name: "Morning Blend", Active: true},
	}}
	svc := newTestService(t, provider)

	resp, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if resp.Synced != 2 {
		t.Fatalf("expected 2 synced, got %d", resp.Synced)
	}

	// Second sync with a renamed and deactivated product must update in
	// place, not duplicate.
	provider.products = []paymentdomain.Product{
		{Ref: "prod_1", Name: "Midnight Roast v2", Active: false},
		{Ref: "prod_2", Name: "Morning Blend", Active: true},
	}
	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("resync: %v", err)
	}

	all, err := svc.List(context.Background(), domain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all.Products) != 2 {
		t.Fatalf("expected 2 products after resync, got %d", len(all.Products))
	}

	active, err := svc.List(context.Background(), domain.ListRequest{ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active.Products) != 1 || active.Products[0].ProviderRef != "prod_2" {
		t.Fatalf("expected only prod_2 active, got %+v", active.Products)
	}

	for _, p := range all.Products {
		if p.ProviderRef == "prod_1" && p.Name != "Midnight Roast v2" {
			t.Fatalf("expected renamed product, got %q", p.Name)
		}
	}
}
