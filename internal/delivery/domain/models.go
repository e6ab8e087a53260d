// Package domain defines delivery logging and the derived delivery status.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

// DeliveryLog is one shipped delivery. Entries are append-only and not
// guaranteed to be inserted in shipped order.
type DeliveryLog struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SubscriberID snowflake.ID `gorm:"not null;index" json:"subscriber_id"`
	Items        string       `gorm:"type:text;not null" json:"items"`
	ShippedAt    time.Time    `gorm:"not null" json:"shipped_at"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DeliveryLog) TableName() string { return "delivery_logs" }

type LogRequest struct {
	SubscriberID string
	Items        string
	ShippedAt    time.Time
}

type ListRequest struct {
	SubscriberID string
	PageToken    string
	PageSize     int
}

type ListResponse struct {
	pagination.PageInfo
	Deliveries []DeliveryLog `json:"deliveries"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *DeliveryLog) error
	ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID, page pagination.Pagination) ([]*DeliveryLog, error)
	// ShippedTimes returns every shipped_at value for the subscriber,
	// unordered. Status derivation needs the full set, not a page.
	ShippedTimes(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]time.Time, error)
}

type Service interface {
	// Log appends a delivery entry and refreshes the subscriber's
	// last-delivery marker.
	Log(ctx context.Context, req LogRequest) (DeliveryLog, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// StatusFor derives the subscriber's delivery status from the full log.
	StatusFor(ctx context.Context, subscriberID string) (Status, error)
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrEmptyItems     = errors.New("empty_items")
	ErrFutureShipDate = errors.New("future_ship_date")
)
