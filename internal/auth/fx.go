package auth

import (
	"github.com/clashcoffee/storefront/internal/auth/repository"
	"github.com/clashcoffee/storefront/internal/auth/service"
	"github.com/clashcoffee/storefront/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
