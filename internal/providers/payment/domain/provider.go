// Package domain defines the payments-provider collaborator contract
// consumed by checkout, cancellation and reconciliation.
package domain

import (
	"context"
	"errors"
)

var (
	// ErrProviderUnavailable marks a failed or timed-out provider call.
	// Callers may retry; no local state has changed.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrNotFound marks a provider object that does not exist.
	ErrNotFound = errors.New("provider object not found")
)

// SubscriptionStatus mirrors the provider's subscription status vocabulary.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is one provider-side subscription.
type Subscription struct {
	Ref               string
	PlanRef           string
	Status            SubscriptionStatus
	CancelAtPeriodEnd bool
}

// CheckoutSessionRequest opens a hosted checkout session.
type CheckoutSessionRequest struct {
	// Exactly one of CustomerRef or CustomerEmail is set. A CustomerRef is
	// preferred so retries reuse the same provider customer.
	CustomerRef   string
	CustomerEmail string
	PlanRef       string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is an opened hosted checkout session.
type CheckoutSession struct {
	Ref string
	URL string
}

// Product is one provider-side catalog product.
type Product struct {
	Ref         string
	Name        string
	Description string
	ImageURL    string
	Active      bool
}

// Provider is the payments-provider collaborator. All calls are bounded by
// the client's timeout and return ErrProviderUnavailable on transport
// failure.
type Provider interface {
	CreateCustomer(ctx context.Context, email string) (string, error)
	CustomerEmail(ctx context.Context, customerRef string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionRef string) (Subscription, error)
	ListActiveSubscriptions(ctx context.Context, customerRef string) ([]Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error
	ListProducts(ctx context.Context) ([]Product, error)
}
