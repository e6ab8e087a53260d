// Package domain defines the checkout initiation contract.
package domain

import (
	"context"
	"errors"
)

type StartRequest struct {
	Email string
	Tier  string
}

type StartResponse struct {
	SessionRef string `json:"session_ref"`
	URL        string `json:"url"`
}

type Service interface {
	// Start ensures an account and a provider customer exist for email,
	// then opens a hosted checkout session for the requested tier.
	Start(ctx context.Context, req StartRequest) (StartResponse, error)
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrUnknownTier  = errors.New("unknown_tier")
)
