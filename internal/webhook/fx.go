package webhook

import (
	"time"

	"github.com/smallbiznis/marketpay/internal/config"
	"github.com/smallbiznis/marketpay/internal/metrics"
	"github.com/smallbiznis/marketpay/internal/notify"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("webhook",
	fx.Provide(func(cfg config.Config) *Verifier {
		return NewVerifier(cfg.StripeWebhookSecret, time.Duration(cfg.WebhookTolerance)*time.Second)
	}),
	fx.Provide(NewPlanTiers),
	fx.Provide(NewHandlers),
	fx.Provide(func(log *zap.Logger, m *metrics.Metrics, sink notify.Sink, handlers *Handlers) *Router {
		router := NewRouter(log, m, sink)
		handlers.Register(router)
		return router
	}),
)
