package service

import (
	"context"
	"errors"

	"github.com/clashcoffee/storefront/internal/checkout/domain"
	"github.com/clashcoffee/storefront/internal/config"
	"github.com/clashcoffee/storefront/internal/observability/metrics"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Subscribers subscriberdomain.Service
	Repo        subscriberdomain.Repository
	Provider    paymentdomain.Provider
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	subscribers subscriberdomain.Service
	repo        subscriberdomain.Repository
	provider    paymentdomain.Provider
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Config,
		db:          p.DB,
		log:         p.Log.Named("checkout.service"),
		subscribers: p.Subscribers,
		repo:        p.Repo,
		provider:    p.Provider,
		metrics:     p.Metrics,
	}
}

func (s *Service) Start(ctx context.Context, req domain.StartRequest) (domain.StartResponse, error) {
	def, err := tier.Parse(req.Tier)
	if err != nil {
		return domain.StartResponse{}, domain.ErrUnknownTier
	}

	subscriber, err := s.subscribers.GetOrCreateByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, subscriberdomain.ErrInvalidEmail) {
			return domain.StartResponse{}, domain.ErrInvalidEmail
		}
		return domain.StartResponse{}, err
	}

	customerRef, err := s.ensureCustomerRef(ctx, subscriber)
	if err != nil {
		return domain.StartResponse{}, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentdomain.CheckoutSessionRequest{
		CustomerRef: customerRef,
		PlanRef:     def.PlanRef,
		SuccessURL:  s.cfg.CheckoutSuccessURL,
		CancelURL:   s.cfg.CheckoutCancelURL,
	})
	if err != nil {
		return domain.StartResponse{}, err
	}

	s.metrics.RecordCheckoutSession(ctx, string(def.ID))
	s.log.Info("checkout session opened",
		zap.String("subscriber_id", subscriber.ID.String()),
		zap.String("tier", string(def.ID)),
		zap.String("session_ref", session.Ref),
	)

	return domain.StartResponse{SessionRef: session.Ref, URL: session.URL}, nil
}

// ensureCustomerRef returns the account's provider customer reference,
// creating one when missing. Concurrent callers may both create a provider
// customer, but the reference is claimed with a conditional write so exactly
// one wins; the loser adopts the winner's reference and its own provider
// customer is simply never referenced again.
func (s *Service) ensureCustomerRef(ctx context.Context, subscriber subscriberdomain.Subscriber) (string, error) {
	if subscriber.ExternalCustomerRef != nil && *subscriber.ExternalCustomerRef != "" {
		return *subscriber.ExternalCustomerRef, nil
	}

	ref, err := s.provider.CreateCustomer(ctx, subscriber.Email)
	if err != nil {
		return "", err
	}

	won, err := s.repo.ClaimExternalCustomerRef(ctx, s.db, subscriber.ID, ref)
	if err != nil {
		return "", err
	}
	if won {
		return ref, nil
	}

	current, err := s.repo.FindByID(ctx, s.db, subscriber.ID)
	if err != nil {
		return "", err
	}
	if current == nil || current.ExternalCustomerRef == nil {
		return "", subscriberdomain.ErrNotFound
	}
	s.log.Info("customer ref claim lost, adopting existing reference",
		zap.String("subscriber_id", subscriber.ID.String()),
	)
	return *current.ExternalCustomerRef, nil
}
