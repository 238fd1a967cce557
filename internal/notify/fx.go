package notify

import (
	"github.com/smallbiznis/marketpay/internal/config"
	"github.com/smallbiznis/marketpay/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the best-effort sink. Without configured URLs the
// sink is a no-op.
var Module = fx.Module("notify",
	fx.Provide(func(cfg config.Config, log *zap.Logger, m *metrics.Metrics) Sink {
		if cfg.AuditWebhookURL == "" && cfg.NotifyWebhookURL == "" {
			return NoOpSink{}
		}
		return NewHTTPSink(cfg.AuditWebhookURL, cfg.NotifyWebhookURL, log, m)
	}),
)
