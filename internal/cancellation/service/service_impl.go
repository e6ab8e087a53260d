package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/cancellation/domain"
	"github.com/clashcoffee/storefront/internal/observability/metrics"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/internal/tier"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Repo           domain.Repository
	SubscriberRepo subscriberdomain.Repository
	Provider       paymentdomain.Provider
	Metrics        *metrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	repo           domain.Repository
	subscriberRepo subscriberdomain.Repository
	provider       paymentdomain.Provider
	metrics        *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("cancellation.service"),
		genID:          p.GenID,
		repo:           p.Repo,
		subscriberRepo: p.SubscriberRepo,
		provider:       p.Provider,
		metrics:        p.Metrics,
	}
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelRequest) (domain.CancelResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.SubscriberID))
	if err != nil || id == 0 {
		return domain.CancelResponse{}, domain.ErrInvalidID
	}

	subscriber, err := s.subscriberRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.CancelResponse{}, err
	}
	if subscriber == nil {
		return domain.CancelResponse{}, domain.ErrNotFound
	}

	if subscriber.ExternalCustomerRef == nil || subscriber.SubscriptionTier == nil {
		s.record(ctx, subscriber, req.Reason, domain.StatusFailed, domain.ErrNoMatchingSubscription.Error())
		return domain.CancelResponse{Status: domain.StatusFailed}, domain.ErrNoMatchingSubscription
	}

	planRef, err := tier.PlanRef(*subscriber.SubscriptionTier)
	if err != nil {
		s.record(ctx, subscriber, req.Reason, domain.StatusFailed, err.Error())
		return domain.CancelResponse{Status: domain.StatusFailed}, err
	}

	subscriptions, err := s.provider.ListActiveSubscriptions(ctx, *subscriber.ExternalCustomerRef)
	if err != nil {
		s.record(ctx, subscriber, req.Reason, domain.StatusFailed, err.Error())
		return domain.CancelResponse{Status: domain.StatusFailed}, err
	}

	var match *paymentdomain.Subscription
	for i := range subscriptions {
		if subscriptions[i].PlanRef == planRef {
			match = &subscriptions[i]
			break
		}
	}
	if match == nil {
		s.record(ctx, subscriber, req.Reason, domain.StatusFailed, domain.ErrNoMatchingSubscription.Error())
		return domain.CancelResponse{Status: domain.StatusFailed}, domain.ErrNoMatchingSubscription
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, match.Ref); err != nil {
		s.record(ctx, subscriber, req.Reason, domain.StatusFailed, err.Error())
		return domain.CancelResponse{Status: domain.StatusFailed}, err
	}

	// The tier is kept; it clears when the provider's terminal event
	// arrives at period end.
	subscriber.CancelAtPeriodEnd = true
	if err := s.subscriberRepo.Update(ctx, s.db, subscriber); err != nil {
		s.record(ctx, subscriber, req.Reason, domain.StatusFailed, err.Error())
		return domain.CancelResponse{Status: domain.StatusFailed}, err
	}

	s.record(ctx, subscriber, req.Reason, domain.StatusSuccess, "")
	s.log.Info("cancellation requested",
		zap.String("subscriber_id", subscriber.ID.String()),
		zap.String("subscription_ref", match.Ref),
	)
	return domain.CancelResponse{Status: domain.StatusSuccess}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	var subscriberID snowflake.ID
	if raw := strings.TrimSpace(req.SubscriberID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidID
		}
		subscriberID = id
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, subscriberID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entry *domain.CancellationLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	logs := make([]domain.CancellationLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := domain.ListResponse{Logs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// record appends an audit entry. Audit failures are logged, not returned;
// the caller's outcome already stands.
func (s *Service) record(ctx context.Context, subscriber *subscriberdomain.Subscriber, reason string, status domain.Status, errMessage string) {
	entry := domain.CancellationLog{
		ID:           s.genID.Generate(),
		SubscriberID: subscriber.ID,
		Email:        subscriber.Email,
		Status:       status,
		Reason:       strings.TrimSpace(reason),
		CreatedAt:    time.Now().UTC(),
	}
	if subscriber.SubscriptionTier != nil {
		value := string(*subscriber.SubscriptionTier)
		entry.Tier = &value
	}
	if errMessage != "" {
		entry.ErrorMessage = &errMessage
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Error("cancellation log write failed",
			zap.String("subscriber_id", subscriber.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordCancellation(ctx, string(status))
}
