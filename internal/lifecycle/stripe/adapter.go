// Package stripe verifies and parses Stripe webhook deliveries into
// provider-neutral lifecycle events.
package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clashcoffee/storefront/internal/lifecycle/domain"
)

// Adapter holds the endpoint's webhook signing secret.
type Adapter struct {
	webhookSecret string
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{webhookSecret: strings.TrimSpace(webhookSecret)}
}

func (a *Adapter) Provider() string { return "stripe" }

// Verify checks the Stripe-Signature header against the signing secret.
func (a *Adapter) Verify(payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" || a.webhookSecret == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

// Parse maps a verified payload to a lifecycle event. Event types outside
// the subscription lifecycle return ErrEventIgnored.
func (a *Adapter) Parse(payload []byte) (*domain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return a.parseCheckoutSession(event)
	case "customer.subscription.updated":
		return a.parseSubscription(event, domain.EventTypeSubscriptionUpdated)
	case "customer.subscription.deleted":
		return a.parseSubscription(event, domain.EventTypeSubscriptionDeleted)
	default:
		return nil, domain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCheckoutSession struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription string `json:"subscription"`
}

type stripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (a *Adapter) parseCheckoutSession(event stripeEvent) (*domain.Event, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	email := strings.TrimSpace(session.CustomerDetails.Email)
	if email == "" {
		email = strings.TrimSpace(session.CustomerEmail)
	}

	return &domain.Event{
		Provider:        a.Provider(),
		ProviderEventID: event.ID,
		Type:            domain.EventTypeCheckoutCompleted,
		SessionRef:      session.ID,
		SubscriptionRef: strings.TrimSpace(session.Subscription),
		CustomerRef:     strings.TrimSpace(session.Customer),
		CustomerEmail:   email,
	}, nil
}

func (a *Adapter) parseSubscription(event stripeEvent, eventType domain.EventType) (*domain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(sub.ID) == "" || strings.TrimSpace(sub.Customer) == "" {
		return nil, domain.ErrInvalidEvent
	}

	planRef := ""
	if len(sub.Items.Data) > 0 {
		planRef = strings.TrimSpace(sub.Items.Data[0].Price.ID)
	}

	return &domain.Event{
		Provider:          a.Provider(),
		ProviderEventID:   event.ID,
		Type:              eventType,
		SubscriptionRef:   sub.ID,
		CustomerRef:       strings.TrimSpace(sub.Customer),
		PlanRef:           planRef,
		Status:            strings.TrimSpace(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}
