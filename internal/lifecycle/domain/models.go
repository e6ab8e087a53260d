// Package domain defines the provider lifecycle events and the reconciler
// contract that applies them to subscriber records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is one received webhook event. The unique (provider,
// provider_event_id) pair deduplicates redeliveries; processed_at marks the
// event as applied.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:ux_webhook_events_provider_event_id" json:"provider"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:ux_webhook_events_provider_event_id" json:"provider_event_id"`
	EventType       string         `gorm:"type:text;not null" json:"event_type"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "webhook_events" }
