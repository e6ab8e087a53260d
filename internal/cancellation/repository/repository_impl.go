package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/cancellation/domain"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.CancellationLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO cancellation_logs (
			id, subscriber_id, email, tier, status, reason, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SubscriberID,
		entry.Email,
		entry.Tier,
		entry.Status,
		entry.Reason,
		entry.ErrorMessage,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID, page pagination.Pagination) ([]*domain.CancellationLog, error) {
	var logs []*domain.CancellationLog
	stmt := db.WithContext(ctx).Model(&domain.CancellationLog{})
	if subscriberID != 0 {
		stmt = stmt.Where("subscriber_id = ?", subscriberID)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}
	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
