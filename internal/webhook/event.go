package webhook

import "encoding/json"

// Event is the verified envelope handed to the router. Data.Object stays
// raw; each handler decodes only the fields it consumes.
type Event struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Livemode bool      `json:"livemode"`
	Created  int64     `json:"created"`
	Data     EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// Event type tags handled by the reconciliation subsystem.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventCheckoutCompleted      = "checkout.session.completed"
	EventSubscriptionCreated    = "customer.subscription.created"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventInvoicePaid            = "invoice.paid"
	EventInvoicePaymentFailed   = "invoice.payment_failed"
)

type paymentIntentObject struct {
	ID string `json:"id"`
}

type checkoutSessionObject struct {
	ID             string `json:"id"`
	Mode           string `json:"mode"`
	Customer       string `json:"customer"`
	PaymentIntent  string `json:"payment_intent"`
	SubscriptionID string `json:"subscription"`
}

type subscriptionObject struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Customer         string `json:"customer"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s subscriptionObject) priceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

type invoiceObject struct {
	ID             string `json:"id"`
	Customer       string `json:"customer"`
	SubscriptionID string `json:"subscription"`
	BillingReason  string `json:"billing_reason"`
}
