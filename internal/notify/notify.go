// Package notify forwards event metadata to external audit and
// notification endpoints. Delivery is best effort: a slow or failing
// sink never blocks or fails reconciliation, and nothing is retried.
package notify

import "context"

// EventRecord is the audit payload emitted for every reconciled event.
type EventRecord struct {
	EventType   string `json:"event_type"`
	EventID     string `json:"event_id"`
	CustomerRef string `json:"customer_ref,omitempty"`
	Livemode    bool   `json:"livemode"`
	ObjectID    string `json:"object_id,omitempty"`
}

type Sink interface {
	// Event forwards audit metadata. It never returns an error and never blocks.
	Event(ctx context.Context, record EventRecord)
	// Notify forwards a human-readable message. Same contract as Event.
	Notify(ctx context.Context, message string)
}

type NoOpSink struct{}

func (NoOpSink) Event(ctx context.Context, record EventRecord) {}

func (NoOpSink) Notify(ctx context.Context, message string) {}
