// Package processor wraps the payment processor's REST API. Everything the
// rest of the service knows about the processor goes through Client, so tests
// substitute a fake.
package processor

import (
	"context"
	"errors"
	"fmt"
)

type CreatePaymentIntentParams struct {
	Amount int64
	// Currency is a lowercase ISO code, e.g. "usd".
	Currency string
	Customer string
	// DestinationAccount is the merchant's connected payout account.
	DestinationAccount string
	// ApplicationFee is the platform's cut in the smallest currency unit.
	ApplicationFee int64
	Description    string
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type CreateCustomerParams struct {
	Name     string
	Email    string
	Metadata map[string]string
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const (
	CheckoutModePayment      = "payment"
	CheckoutModeSubscription = "subscription"
)

type CreateCheckoutSessionParams struct {
	Mode       string
	Customer   string
	PriceID    string
	Quantity   int64
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Subscription is the slice of the processor's subscription object the
// reconciliation path consumes: identity, status, the first billing item's
// price and the period end.
type Subscription struct {
	ID               string
	Status           string
	CustomerID       string
	PriceID          string
	CurrentPeriodEnd int64
}

type CreateAccountParams struct {
	Email   string
	Country string
}

type Account struct {
	ID string `json:"id"`
}

type CreateAccountLinkParams struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

type AccountLink struct {
	URL string `json:"url"`
}

type Client interface {
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CancelSubscription(ctx context.Context, id string) (*Subscription, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error)
	CreateAccountLink(ctx context.Context, params CreateAccountLinkParams) (*AccountLink, error)
}

var ErrNotConfigured = errors.New("processor_not_configured")

// ErrResourceMissing reports that the processor no longer knows the
// referenced object. Administrative operations remap it to not-found.
var ErrResourceMissing = errors.New("resource_missing")

// Error preserves the upstream failure for diagnostics.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("processor: %s", e.Message)
	}
	return "processor: request failed"
}

func (e *Error) Is(target error) bool {
	return target == ErrResourceMissing && e.Code == "resource_missing"
}
