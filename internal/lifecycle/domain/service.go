package domain

import (
	"context"
	"net/http"
)

// Service verifies, records and applies provider lifecycle events.
type Service interface {
	// IngestWebhook authenticates a raw webhook delivery and reconciles
	// subscriber state with it. Verification happens before any mutation;
	// any error after the event record exists leaves processed_at unset so
	// the provider's retry redelivers the event.
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error
}
