// Package domain contains models and contracts for subscriber accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/tier"
)

// Role controls access to the admin surfaces.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Subscriber is one customer account. Tier and customer reference are only
// written by the checkout initiator and the lifecycle reconciler; a non-nil
// tier implies a non-nil customer reference.
type Subscriber struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Email               string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Role                Role         `gorm:"type:text;not null;default:'USER'" json:"role"`
	PasswordHash        *string      `gorm:"type:text" json:"-"`
	ExternalCustomerRef *string      `gorm:"type:text;uniqueIndex" json:"external_customer_ref,omitempty"`
	SubscriptionTier    *tier.Tier   `gorm:"type:text" json:"subscription_tier,omitempty"`
	SubscriptionStatus  *string      `gorm:"type:text" json:"subscription_status,omitempty"`
	CancelAtPeriodEnd   bool         `gorm:"not null;default:false" json:"cancel_at_period_end"`
	IsNewSubscriber     bool         `gorm:"not null;default:true" json:"is_new_subscriber"`
	MerchSent           bool         `gorm:"not null;default:false" json:"merch_sent"`

	Street           *string `gorm:"type:text" json:"street,omitempty"`
	Unit             *string `gorm:"type:text" json:"unit,omitempty"`
	City             *string `gorm:"type:text" json:"city,omitempty"`
	State            *string `gorm:"type:text" json:"state,omitempty"`
	PostalCode       *string `gorm:"type:text" json:"postal_code,omitempty"`
	Country          *string `gorm:"type:text" json:"country,omitempty"`
	FormattedAddress *string `gorm:"type:text" json:"formatted_address,omitempty"`

	// LastDeliveryAt caches the newest delivery timestamp for list views.
	// Status derivation always reads the full delivery log.
	LastDeliveryAt *time.Time `json:"last_delivery_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscriber) TableName() string { return "subscribers" }

// Subscribed reports whether the account currently holds a tier.
func (s Subscriber) Subscribed() bool { return s.SubscriptionTier != nil }

// Address carries the deliverable address fields for an update.
type Address struct {
	Street     string `json:"street"`
	Unit       string `json:"unit,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
