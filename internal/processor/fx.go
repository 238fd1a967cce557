package processor

import (
	"github.com/smallbiznis/marketpay/internal/config"
	"go.uber.org/fx"
)

// Module provides the Stripe-backed processor client.
var Module = fx.Module("processor",
	fx.Provide(func(cfg config.Config) Client {
		return NewStripeClient(cfg.StripeAPIKey)
	}),
)
