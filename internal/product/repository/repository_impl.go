package repository

import (
	"context"

	"github.com/clashcoffee/storefront/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertByProviderRef(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (
			id, provider_ref, name, description, image_url, active, synced_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_ref) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			image_url = excluded.image_url,
			active = excluded.active,
			synced_at = excluded.synced_at,
			updated_at = excluded.updated_at`,
		product.ID,
		product.ProviderRef,
		product.Name,
		product.Description,
		product.ImageURL,
		product.Active,
		product.SyncedAt,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.Product, error) {
	var products []*domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	err := stmt.Order("name asc, id asc").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
