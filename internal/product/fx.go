package product

import (
	"github.com/clashcoffee/storefront/internal/product/repository"
	"github.com/clashcoffee/storefront/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
