package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Email          string
	SubscribedOnly bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscriber *Subscriber) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscriber, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Subscriber, error)
	FindByCustomerRef(ctx context.Context, db *gorm.DB, ref string) (*Subscriber, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Subscriber, error)
	Update(ctx context.Context, db *gorm.DB, subscriber *Subscriber) error

	// ClaimExternalCustomerRef sets the provider customer reference only if
	// none is recorded yet. It reports whether this call won the claim.
	ClaimExternalCustomerRef(ctx context.Context, db *gorm.DB, id snowflake.ID, ref string) (bool, error)
}
