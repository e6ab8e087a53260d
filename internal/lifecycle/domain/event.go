package domain

import "errors"

// EventType classifies the lifecycle transitions the reconciler handles.
type EventType string

const (
	EventTypeCheckoutCompleted   EventType = "checkout_completed"
	EventTypeSubscriptionUpdated EventType = "subscription_updated"
	EventTypeSubscriptionDeleted EventType = "subscription_deleted"
)

// Event is a provider lifecycle event after signature verification and
// payload parsing. Field presence varies by type: checkout completion
// carries session and customer identity, subscription events carry the
// subscription state snapshot.
type Event struct {
	Provider          string
	ProviderEventID   string
	Type              EventType
	SessionRef        string
	SubscriptionRef   string
	CustomerRef       string
	CustomerEmail     string
	PlanRef           string
	Status            string
	CancelAtPeriodEnd bool
}

var (
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrUnmappedPlanRef       = errors.New("unmapped_plan_ref")
	ErrSubscriberNotFound    = errors.New("subscriber_not_found")
)
