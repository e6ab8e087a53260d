package lifecycle

import (
	"github.com/clashcoffee/storefront/internal/config"
	"github.com/clashcoffee/storefront/internal/lifecycle/repository"
	"github.com/clashcoffee/storefront/internal/lifecycle/service"
	"github.com/clashcoffee/storefront/internal/lifecycle/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("lifecycle.service",
	fx.Provide(func(cfg config.Config) *stripe.Adapter {
		return stripe.NewAdapter(cfg.StripeWebhookSecret)
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
