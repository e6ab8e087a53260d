package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/delivery/domain"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.DeliveryLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO delivery_logs (id, subscriber_id, items, shipped_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SubscriberID,
		entry.Items,
		entry.ShippedAt,
		entry.CreatedAt,
	).Error
}

func (r *repo) ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID, page pagination.Pagination) ([]*domain.DeliveryLog, error) {
	var entries []*domain.DeliveryLog
	stmt := db.WithContext(ctx).
		Model(&domain.DeliveryLog{}).
		Where("subscriber_id = ?", subscriberID)
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			stmt = stmt.Where("(shipped_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}
	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	err := stmt.
		Order("shipped_at desc, id desc").
		Limit(limit + 1).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) ShippedTimes(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]time.Time, error) {
	var times []time.Time
	err := db.WithContext(ctx).Raw(
		`SELECT shipped_at FROM delivery_logs WHERE subscriber_id = ?`,
		subscriberID,
	).Scan(&times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}
