package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/product/domain"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Provider paymentdomain.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	provider paymentdomain.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		provider: p.Provider,
	}
}

func (s *Service) Sync(ctx context.Context) (domain.SyncResponse, error) {
	items, err := s.provider.ListProducts(ctx)
	if err != nil {
		return domain.SyncResponse{}, err
	}

	now := time.Now().UTC()
	for _, item := range items {
		product := domain.Product{
			ID:          s.genID.Generate(),
			ProviderRef: item.Ref,
			Name:        item.Name,
			Description: item.Description,
			ImageURL:    item.ImageURL,
			Active:      item.Active,
			SyncedAt:    now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.UpsertByProviderRef(ctx, s.db, &product); err != nil {
			return domain.SyncResponse{}, err
		}
	}

	s.log.Info("product catalog synced", zap.Int("count", len(items)))
	return domain.SyncResponse{Synced: len(items)}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	items, err := s.repo.List(ctx, s.db, req.ActiveOnly)
	if err != nil {
		return domain.ListResponse{}, err
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}
	return domain.ListResponse{Products: products}, nil
}
