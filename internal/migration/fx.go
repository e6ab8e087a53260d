package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/config"
	"github.com/clashcoffee/storefront/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
			return err
		}

		return seed.EnsureAdmin(conn, cfg, genID)
	}),
)
