package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscriber *domain.Subscriber) error {
	return db.WithContext(ctx).Create(subscriber).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscriber, error) {
	var subscriber domain.Subscriber
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscribers WHERE id = ?`, id,
	).Scan(&subscriber).Error
	if err != nil {
		return nil, err
	}
	if subscriber.ID == 0 {
		return nil, nil
	}
	return &subscriber, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Subscriber, error) {
	var subscriber domain.Subscriber
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscribers WHERE email = ?`, email,
	).Scan(&subscriber).Error
	if err != nil {
		return nil, err
	}
	if subscriber.ID == 0 {
		return nil, nil
	}
	return &subscriber, nil
}

func (r *repo) FindByCustomerRef(ctx context.Context, db *gorm.DB, ref string) (*domain.Subscriber, error) {
	var subscriber domain.Subscriber
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscribers WHERE external_customer_ref = ?`, ref,
	).Scan(&subscriber).Error
	if err != nil {
		return nil, err
	}
	if subscriber.ID == 0 {
		return nil, nil
	}
	return &subscriber, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Subscriber, error) {
	var subscribers []*domain.Subscriber
	stmt := db.WithContext(ctx).Model(&domain.Subscriber{})
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.SubscribedOnly {
		stmt = stmt.Where("subscription_tier IS NOT NULL")
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			stmt = stmt.Where(
				"(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID,
			)
		}
	}
	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&subscribers).Error
	if err != nil {
		return nil, err
	}
	return subscribers, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscriber *domain.Subscriber) error {
	subscriber.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(subscriber).Error
}

func (r *repo) ClaimExternalCustomerRef(ctx context.Context, db *gorm.DB, id snowflake.ID, ref string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE subscribers
		 SET external_customer_ref = ?, updated_at = ?
		 WHERE id = ? AND external_customer_ref IS NULL`,
		ref, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
