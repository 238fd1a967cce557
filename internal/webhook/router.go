package webhook

import (
	"context"
	"encoding/json"

	"github.com/smallbiznis/marketpay/internal/metrics"
	"github.com/smallbiznis/marketpay/internal/notify"
	"go.uber.org/zap"
)

// HandlerFunc applies one verified event to local state. It must be
// idempotent: the processor delivers at least once with no ordering.
type HandlerFunc func(ctx context.Context, event *Event) error

// Router maps an event's type tag to its registered handler. Unknown
// types are acknowledged, never rejected: the sender treats a failed
// acknowledgment as a retry trigger, and retrying an intentionally
// ignored type is wasted load.
type Router struct {
	log      *zap.Logger
	metrics  *metrics.Metrics
	sink     notify.Sink
	handlers map[string]HandlerFunc
}

func NewRouter(log *zap.Logger, m *metrics.Metrics, sink notify.Sink) *Router {
	return &Router{
		log:      log.Named("webhook.router"),
		metrics:  m,
		sink:     sink,
		handlers: map[string]HandlerFunc{},
	}
}

func (r *Router) Handle(eventType string, fn HandlerFunc) {
	r.handlers[eventType] = fn
}

// Dispatch runs the matching handler. A handler error propagates so the
// endpoint answers with a server error and the processor redelivers.
func (r *Router) Dispatch(ctx context.Context, event *Event) error {
	handler, ok := r.handlers[event.Type]
	if !ok {
		r.log.Debug("unhandled event type",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID))
		r.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeUnhandled)
		return nil
	}

	if err := handler(ctx, event); err != nil {
		r.log.Error("event handler failed",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err))
		r.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeFailed)
		return err
	}

	r.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeProcessed)
	r.audit(ctx, event)
	return nil
}

// audit forwards event metadata to the best-effort sink after the
// handler committed. Sink outcome never affects the acknowledgment.
func (r *Router) audit(ctx context.Context, event *Event) {
	var object struct {
		ID       string `json:"id"`
		Customer string `json:"customer"`
	}
	_ = json.Unmarshal(event.Data.Object, &object)

	r.sink.Event(ctx, notify.EventRecord{
		EventType:   event.Type,
		EventID:     event.ID,
		CustomerRef: object.Customer,
		Livemode:    event.Livemode,
		ObjectID:    object.ID,
	})
}
