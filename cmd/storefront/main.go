package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/clock"
	"github.com/clashcoffee/storefront/internal/config"
	"github.com/clashcoffee/storefront/internal/migration"
	"github.com/clashcoffee/storefront/internal/observability"
	"github.com/clashcoffee/storefront/internal/server"
	"github.com/clashcoffee/storefront/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
