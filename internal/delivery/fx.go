package delivery

import (
	"github.com/clashcoffee/storefront/internal/delivery/repository"
	"github.com/clashcoffee/storefront/internal/delivery/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
