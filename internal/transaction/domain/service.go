package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/marketpay/pkg/db/pagination"
)

type CreatePaymentIntentRequest struct {
	CompanyID string `json:"company_id"`
	Customer  string `json:"customer"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	// ApplicationFeeBps is the platform's cut in basis points of the
	// amount. Callers supply it per request; there is no default rate.
	ApplicationFeeBps int64             `json:"application_fee_bps"`
	Description       string            `json:"description"`
	Metadata          map[string]string `json:"metadata"`
}

type CreatePaymentIntentResponse struct {
	Transaction  PaymentTransaction `json:"transaction"`
	ClientSecret string             `json:"client_secret"`
}

type CreateCheckoutSessionRequest struct {
	CompanyID  string            `json:"company_id"`
	Mode       string            `json:"mode"`
	PriceID    string            `json:"price_id"`
	Quantity   int64             `json:"quantity"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata"`
}

type CreateCheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type ListTransactionsRequest struct {
	CompanyID      string `form:"company_id"`
	Status         string `form:"status"`
	InternalStatus string `form:"internal_status"`
	Customer       string `form:"customer"`
	pagination.Pagination
}

type ListTransactionsResponse struct {
	pagination.PageInfo
	Transactions []PaymentTransaction `json:"transactions"`
}

type GetTransactionRequest struct {
	ID string
}

type UpdateInternalStatusRequest struct {
	ID             string
	InternalStatus string `json:"internal_status"`
	// Note, when present, is merged into the metadata map without
	// discarding existing keys.
	Note string `json:"note"`
}

type CancelSubscriptionRequest struct {
	SubscriptionID string
}

type Service interface {
	CreatePaymentIntent(context.Context, CreatePaymentIntentRequest) (CreatePaymentIntentResponse, error)
	CreateCheckoutSession(context.Context, CreateCheckoutSessionRequest) (CreateCheckoutSessionResponse, error)
	List(context.Context, ListTransactionsRequest) (ListTransactionsResponse, error)
	GetByID(context.Context, GetTransactionRequest) (PaymentTransaction, error)
	UpdateInternalStatus(context.Context, UpdateInternalStatusRequest) (PaymentTransaction, error)
	CancelSubscription(context.Context, CancelSubscriptionRequest) error
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidCompany        = errors.New("invalid_company")
	ErrInvalidCustomer       = errors.New("invalid_customer")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidCurrency       = errors.New("invalid_currency")
	ErrInvalidFee            = errors.New("invalid_fee")
	ErrInvalidMode           = errors.New("invalid_mode")
	ErrInvalidPrice          = errors.New("invalid_price")
	ErrInvalidURL            = errors.New("invalid_url")
	ErrInvalidInternalStatus = errors.New("invalid_internal_status")
	ErrInvalidFilter         = errors.New("invalid_filter")
	ErrNotFound              = errors.New("not_found")
	ErrCompanyNotOnboarded   = errors.New("company_not_onboarded")
)
