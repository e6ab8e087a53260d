package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/clock"
	"github.com/clashcoffee/storefront/internal/delivery/domain"
	"github.com/clashcoffee/storefront/internal/observability/metrics"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
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
	Clock          clock.Clock
	Repo           domain.Repository
	SubscriberRepo subscriberdomain.Repository
	Metrics        *metrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	subscriberRepo subscriberdomain.Repository
	metrics        *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("delivery.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		subscriberRepo: p.SubscriberRepo,
		metrics:        p.Metrics,
	}
}

func (s *Service) Log(ctx context.Context, req domain.LogRequest) (domain.DeliveryLog, error) {
	id, err := s.parseID(req.SubscriberID)
	if err != nil {
		return domain.DeliveryLog{}, err
	}

	items := strings.TrimSpace(req.Items)
	if items == "" {
		return domain.DeliveryLog{}, domain.ErrEmptyItems
	}

	now := s.clock.Now()
	shippedAt := req.ShippedAt
	if shippedAt.IsZero() {
		shippedAt = now
	}
	if shippedAt.After(now) {
		return domain.DeliveryLog{}, domain.ErrFutureShipDate
	}

	subscriber, err := s.subscriberRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.DeliveryLog{}, err
	}
	if subscriber == nil {
		return domain.DeliveryLog{}, domain.ErrNotFound
	}

	entry := domain.DeliveryLog{
		ID:           s.genID.Generate(),
		SubscriberID: id,
		Items:        items,
		ShippedAt:    shippedAt.UTC(),
		CreatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		return domain.DeliveryLog{}, err
	}

	// Fast-path cache only; status derivation still reads the full log.
	subscriber.LastDeliveryAt = &entry.ShippedAt
	if err := s.subscriberRepo.Update(ctx, s.db, subscriber); err != nil {
		return domain.DeliveryLog{}, err
	}

	s.metrics.RecordDelivery(ctx)
	s.log.Info("delivery logged",
		zap.String("subscriber_id", id.String()),
		zap.Time("shipped_at", entry.ShippedAt),
	)
	return entry, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	id, err := s.parseID(req.SubscriberID)
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListBySubscriber(ctx, s.db, id, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entry *domain.DeliveryLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.ShippedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	deliveries := make([]domain.DeliveryLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		deliveries = append(deliveries, *item)
	}

	resp := domain.ListResponse{Deliveries: deliveries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) StatusFor(ctx context.Context, subscriberID string) (domain.Status, error) {
	id, err := s.parseID(subscriberID)
	if err != nil {
		return "", err
	}
	shipped, err := s.repo.ShippedTimes(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	return domain.DeriveStatus(shipped, s.clock.Now()), nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
