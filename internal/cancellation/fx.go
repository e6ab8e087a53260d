package cancellation

import (
	"github.com/clashcoffee/storefront/internal/cancellation/repository"
	"github.com/clashcoffee/storefront/internal/cancellation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cancellation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
