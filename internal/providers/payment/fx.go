package payment

import (
	"github.com/clashcoffee/storefront/internal/config"
	"github.com/clashcoffee/storefront/internal/providers/payment/domain"
	"github.com/clashcoffee/storefront/internal/providers/payment/stripe"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.payment",
	fx.Provide(provideStripe),
)

func provideStripe(cfg config.Config, log *zap.Logger) domain.Provider {
	return stripe.NewClient(stripe.Config{
		SecretKey: cfg.StripeSecretKey,
		Timeout:   cfg.StripeTimeout,
	}, log)
}
