package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/pkg/db"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscriber.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive regardless of how the address was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) GetOrCreateByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Subscriber{}, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	now := time.Now().UTC()
	subscriber := domain.Subscriber{
		ID:              s.genID.Generate(),
		Email:           email,
		Role:            domain.RoleUser,
		IsNewSubscriber: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, s.db, &subscriber); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost a create race; the winner's row is the account.
			winner, ferr := s.repo.FindByEmail(ctx, s.db, email)
			if ferr != nil {
				return domain.Subscriber{}, ferr
			}
			if winner != nil {
				return *winner, nil
			}
		}
		return domain.Subscriber{}, err
	}

	s.log.Info("subscriber created", zap.String("subscriber_id", subscriber.ID.String()))
	return subscriber, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Subscriber, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	subscriber, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if subscriber == nil {
		return domain.Subscriber{}, domain.ErrNotFound
	}
	return *subscriber, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.Subscriber{}, domain.ErrInvalidEmail
	}
	subscriber, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if subscriber == nil {
		return domain.Subscriber{}, domain.ErrNotFound
	}
	return *subscriber, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := domain.ListFilter{
		Email:          NormalizeEmail(req.Email),
		SubscribedOnly: req.SubscribedOnly,
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(sub *domain.Subscriber) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        sub.ID.String(),
			CreatedAt: sub.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	subscribers := make([]domain.Subscriber, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		subscribers = append(subscribers, *item)
	}

	resp := domain.ListResponse{Subscribers: subscribers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) UpdateAddress(ctx context.Context, req domain.UpdateAddressRequest) (domain.Subscriber, error) {
	parsed, err := s.parseID(req.ID)
	if err != nil {
		return domain.Subscriber{}, err
	}
	subscriber, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if subscriber == nil {
		return domain.Subscriber{}, domain.ErrNotFound
	}

	addr := req.Address
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" {
		return domain.Subscriber{}, domain.ErrInvalidFields
	}

	subscriber.Street = strptr(addr.Street)
	subscriber.Unit = optptr(addr.Unit)
	subscriber.City = strptr(addr.City)
	subscriber.State = optptr(addr.State)
	subscriber.PostalCode = optptr(addr.PostalCode)
	subscriber.Country = optptr(addr.Country)
	subscriber.FormattedAddress = strptr(formatAddress(addr))

	if err := s.repo.Update(ctx, s.db, subscriber); err != nil {
		return domain.Subscriber{}, err
	}
	return *subscriber, nil
}

func (s *Service) SetMerchSent(ctx context.Context, req domain.SetMerchSentRequest) (domain.Subscriber, error) {
	parsed, err := s.parseID(req.ID)
	if err != nil {
		return domain.Subscriber{}, err
	}
	subscriber, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if subscriber == nil {
		return domain.Subscriber{}, domain.ErrNotFound
	}

	subscriber.MerchSent = req.MerchSent
	if err := s.repo.Update(ctx, s.db, subscriber); err != nil {
		return domain.Subscriber{}, err
	}
	return *subscriber, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// formatAddress builds the single-line display form kept alongside the
// structured fields.
func formatAddress(a domain.Address) string {
	parts := make([]string, 0, 6)
	street := strings.TrimSpace(a.Street)
	if unit := strings.TrimSpace(a.Unit); unit != "" {
		street = street + " " + unit
	}
	for _, part := range []string{street, a.City, a.State, a.PostalCode, a.Country} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func strptr(v string) *string {
	v = strings.TrimSpace(v)
	return &v
}

func optptr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
