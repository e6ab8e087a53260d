package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/lifecycle/domain"
	"github.com/clashcoffee/storefront/internal/lifecycle/stripe"
	"github.com/clashcoffee/storefront/internal/observability/metrics"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Repo           domain.Repository
	SubscriberRepo subscriberdomain.Repository
	Subscribers    subscriberdomain.Service
	Provider       paymentdomain.Provider
	Adapter        *stripe.Adapter
	Metrics        *metrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	repo           domain.Repository
	subscriberRepo subscriberdomain.Repository
	subscribers    subscriberdomain.Service
	provider       paymentdomain.Provider
	adapter        *stripe.Adapter
	metrics        *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("lifecycle.service"),
		genID:          p.GenID,
		repo:           p.Repo,
		subscriberRepo: p.SubscriberRepo,
		subscribers:    p.Subscribers,
		provider:       p.Provider,
		adapter:        p.Adapter,
		metrics:        p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if !json.Valid(payload) {
		return domain.ErrInvalidPayload
	}
	if err := s.adapter.Verify(payload, headers); err != nil {
		return err
	}

	event, err := s.adapter.Parse(payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	received := domain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       string(event.Type),
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return domain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return domain.ErrEventAlreadyProcessed
		}
	}

	if err := s.apply(ctx, event); err != nil {
		return err
	}

	// processed_at is set only after the state change lands, so any failure
	// above leaves the event eligible for redelivery.
	if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, now); err != nil {
		return err
	}

	s.metrics.RecordLifecycleEvent(ctx, string(event.Type))
	s.log.Info("lifecycle event applied",
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("event_type", string(event.Type)),
	)
	return nil
}

func (s *Service) apply(ctx context.Context, event *domain.Event) error {
	switch event.Type {
	case domain.EventTypeCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)
	case domain.EventTypeSubscriptionUpdated:
		return s.applySubscriptionUpdated(ctx, event)
	case domain.EventTypeSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, event)
	default:
		return domain.ErrInvalidEvent
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, event *domain.Event) error {
	if event.CustomerRef == "" {
		return domain.ErrInvalidEvent
	}

	email := event.CustomerEmail
	if email == "" {
		resolved, err := s.provider.CustomerEmail(ctx, event.CustomerRef)
		if err != nil {
			return err
		}
		if resolved == "" {
			return domain.ErrInvalidEvent
		}
		email = resolved
	}

	state := paymentdomain.Subscription{
		PlanRef:           event.PlanRef,
		Status:            paymentdomain.SubscriptionStatusActive,
		CancelAtPeriodEnd: false,
	}
	if event.SubscriptionRef != "" {
		fetched, err := s.provider.GetSubscription(ctx, event.SubscriptionRef)
		if err != nil {
			return err
		}
		state = fetched
	}

	def, err := tier.ByPlanRef(state.PlanRef)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrUnmappedPlanRef, state.PlanRef)
	}

	subscriber, err := s.subscribers.GetOrCreateByEmail(ctx, email)
	if err != nil {
		return err
	}

	if subscriber.ExternalCustomerRef == nil {
		if _, err := s.subscriberRepo.ClaimExternalCustomerRef(ctx, s.db, subscriber.ID, event.CustomerRef); err != nil {
			return err
		}
	} else if *subscriber.ExternalCustomerRef != event.CustomerRef {
		s.log.Warn("checkout customer ref differs from recorded reference",
			zap.String("subscriber_id", subscriber.ID.String()),
			zap.String("event_customer_ref", event.CustomerRef),
		)
	}

	current, err := s.subscriberRepo.FindByID(ctx, s.db, subscriber.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrSubscriberNotFound
	}

	status := string(state.Status)
	current.SubscriptionTier = &def.ID
	current.SubscriptionStatus = &status
	current.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	current.IsNewSubscriber = false
	return s.subscriberRepo.Update(ctx, s.db, current)
}

// applySubscriptionUpdated re-reads the provider's authoritative state
// instead of trusting the event snapshot, so redelivered or out-of-order
// events converge to the same record.
func (s *Service) applySubscriptionUpdated(ctx context.Context, event *domain.Event) error {
	subscriber, err := s.subscriberRepo.FindByCustomerRef(ctx, s.db, event.CustomerRef)
	if err != nil {
		return err
	}
	if subscriber == nil {
		return domain.ErrSubscriberNotFound
	}

	state, err := s.provider.GetSubscription(ctx, event.SubscriptionRef)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrNotFound) {
			return s.clearTier(ctx, subscriber)
		}
		return err
	}

	if state.Status == paymentdomain.SubscriptionStatusCanceled {
		return s.clearTier(ctx, subscriber)
	}

	def, err := tier.ByPlanRef(state.PlanRef)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrUnmappedPlanRef, state.PlanRef)
	}

	status := string(state.Status)
	subscriber.SubscriptionTier = &def.ID
	subscriber.SubscriptionStatus = &status
	subscriber.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	return s.subscriberRepo.Update(ctx, s.db, subscriber)
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, event *domain.Event) error {
	subscriber, err := s.subscriberRepo.FindByCustomerRef(ctx, s.db, event.CustomerRef)
	if err != nil {
		return err
	}
	if subscriber == nil {
		return domain.ErrSubscriberNotFound
	}
	return s.clearTier(ctx, subscriber)
}

func (s *Service) clearTier(ctx context.Context, subscriber *subscriberdomain.Subscriber) error {
	status := string(paymentdomain.SubscriptionStatusCanceled)
	subscriber.SubscriptionTier = nil
	subscriber.SubscriptionStatus = &status
	subscriber.CancelAtPeriodEnd = false
	return s.subscriberRepo.Update(ctx, s.db, subscriber)
}
