package domain

import (
	"context"

	"github.com/clashcoffee/storefront/pkg/db/pagination"
)

type ListRequest struct {
	PageToken      string
	PageSize       int
	Email          string
	SubscribedOnly bool
}

type ListResponse struct {
	pagination.PageInfo
	Subscribers []Subscriber `json:"subscribers"`
}

type UpdateAddressRequest struct {
	ID      string
	Address Address
}

type SetMerchSentRequest struct {
	ID        string
	MerchSent bool
}

type Service interface {
	// GetOrCreateByEmail returns the account for email, creating a bare
	// USER account when none exists. Email matching is case-insensitive.
	GetOrCreateByEmail(ctx context.Context, email string) (Subscriber, error)
	GetByID(ctx context.Context, id string) (Subscriber, error)
	GetByEmail(ctx context.Context, email string) (Subscriber, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	UpdateAddress(ctx context.Context, req UpdateAddressRequest) (Subscriber, error)
	SetMerchSent(ctx context.Context, req SetMerchSentRequest) (Subscriber, error)
}
