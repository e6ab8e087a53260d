// Package domain defines the storefront product catalog mirrored from the
// payments provider.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Product is one catalog entry. ProviderRef ties the row to the provider
// object; rows are upserted on sync, never deleted.
type Product struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ProviderRef string       `gorm:"type:text;not null;uniqueIndex" json:"provider_ref"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string       `gorm:"type:text" json:"image_url,omitempty"`
	Active      bool         `gorm:"not null;default:true" json:"active"`
	SyncedAt    time.Time    `gorm:"not null" json:"synced_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

type SyncResponse struct {
	Synced int `json:"synced"`
}

type ListRequest struct {
	ActiveOnly bool
}

type ListResponse struct {
	Products []Product `json:"products"`
}

type Repository interface {
	// UpsertByProviderRef inserts or refreshes the row keyed by the
	// provider reference.
	UpsertByProviderRef(ctx context.Context, db *gorm.DB, product *Product) error
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*Product, error)
}

type Service interface {
	// Sync pulls the provider catalog and upserts every product.
	Sync(ctx context.Context) (SyncResponse, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var ErrNotFound = errors.New("not_found")
