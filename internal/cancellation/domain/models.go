// Package domain defines the cancel-at-period-end workflow and its
// append-only audit log.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// CancellationLog is one cancellation attempt. Entries are append-only;
// failed attempts are recorded the same as successful ones.
type CancellationLog struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SubscriberID snowflake.ID `gorm:"not null;index" json:"subscriber_id"`
	Email        string       `gorm:"type:text;not null" json:"email"`
	Tier         *string      `gorm:"type:text" json:"tier,omitempty"`
	Status       Status       `gorm:"type:text;not null" json:"status"`
	Reason       string       `gorm:"type:text" json:"reason,omitempty"`
	ErrorMessage *string      `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CancellationLog) TableName() string { return "cancellation_logs" }

type CancelRequest struct {
	SubscriberID string
	Reason       string
}

type CancelResponse struct {
	Status Status `json:"status"`
}

type ListRequest struct {
	PageToken    string
	PageSize     int
	SubscriberID string
}

type ListResponse struct {
	pagination.PageInfo
	Logs []CancellationLog `json:"logs"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *CancellationLog) error
	List(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID, page pagination.Pagination) ([]*CancellationLog, error)
}

type Service interface {
	// Cancel requests cancel-at-period-end for the subscriber's active
	// subscription. The recorded tier is kept until the provider delivers
	// the terminal lifecycle event; every attempt appends a log entry.
	Cancel(ctx context.Context, req CancelRequest) (CancelResponse, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("not_found")
	ErrNoMatchingSubscription = errors.New("no_matching_subscription")
)
