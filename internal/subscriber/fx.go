package subscriber

import (
	"github.com/clashcoffee/storefront/internal/subscriber/repository"
	"github.com/clashcoffee/storefront/internal/subscriber/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscriber.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
