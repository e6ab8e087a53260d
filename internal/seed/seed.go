// Package seed bootstraps the accounts the storefront needs on first start.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/auth/password"
	"github.com/clashcoffee/storefront/internal/config"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"gorm.io/gorm"
)

// EnsureAdmin seeds the configured admin account. A pre-existing account
// with the same email is promoted to ADMIN rather than recreated; its
// password is left untouched. The seed is skipped when no admin email is
// configured.
func EnsureAdmin(db *gorm.DB, cfg config.Config, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subscriberdomain.Subscriber
		err := tx.WithContext(ctx).Where("email = ?", email).First(&sub).Error
		if err == nil {
			if sub.Role == subscriberdomain.RoleAdmin {
				return nil
			}
			return tx.WithContext(ctx).
				Model(&subscriberdomain.Subscriber{}).
				Where("id = ?", sub.ID).
				Updates(map[string]any{"role": subscriberdomain.RoleAdmin, "updated_at": time.Now().UTC()}).
				Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var hash *string
		if cfg.AdminPassword != "" {
			hashed, err := password.Hash(cfg.AdminPassword)
			if err != nil {
				return err
			}
			hash = &hashed
		}
		now := time.Now().UTC()
		sub = subscriberdomain.Subscriber{
			ID:           node.Generate(),
			Email:        email,
			Role:         subscriberdomain.RoleAdmin,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&sub).Error
	})
}
