package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type stripeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewStripeClient builds the production client for the Stripe REST API.
func NewStripeClient(apiKey string) Client {
	return &stripeClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

type stripeErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *stripeClient) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(params.Amount, 10))
	values.Set("currency", strings.ToLower(params.Currency))
	if params.Customer != "" {
		values.Set("customer", params.Customer)
	}
	if params.DestinationAccount != "" {
		values.Set("transfer_data[destination]", params.DestinationAccount)
	}
	if params.ApplicationFee > 0 {
		values.Set("application_fee_amount", strconv.FormatInt(params.ApplicationFee, 10))
	}
	if params.Description != "" {
		values.Set("description", params.Description)
	}
	setMetadata(values, params.Metadata)

	var intent PaymentIntent
	idempotencyKey := ""
	if intentRef, ok := params.Metadata["transaction_id"]; ok {
		idempotencyKey = "txn:" + intentRef
	}
	if err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents", values, idempotencyKey, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *stripeClient) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	values := url.Values{}
	if params.Name != "" {
		values.Set("name", params.Name)
	}
	if params.Email != "" {
		values.Set("email", params.Email)
	}
	setMetadata(values, params.Metadata)

	var customer Customer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, "", &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", params.Mode)
	if params.Customer != "" {
		values.Set("customer", params.Customer)
	}
	values.Set("line_items[0][price]", params.PriceID)
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	values.Set("line_items[0][quantity]", strconv.FormatInt(quantity, 10))
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	setMetadata(values, params.Metadata)

	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

type stripeSubscription struct {
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

func (s stripeSubscription) toSubscription() *Subscription {
	sub := &Subscription{
		ID:               s.ID,
		Status:           s.Status,
		CustomerID:       s.Customer,
		CurrentPeriodEnd: s.CurrentPeriodEnd,
	}
	if len(s.Items.Data) > 0 {
		sub.PriceID = s.Items.Data[0].Price.ID
	}
	return sub
}

func (c *stripeClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub stripeSubscription
	if err := c.doRequest(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, "", &sub); err != nil {
		return nil, err
	}
	return sub.toSubscription(), nil
}

func (c *stripeClient) CancelSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub stripeSubscription
	if err := c.doRequest(ctx, http.MethodDelete, "/v1/subscriptions/"+url.PathEscape(id), nil, "", &sub); err != nil {
		return nil, err
	}
	return sub.toSubscription(), nil
}

func (c *stripeClient) CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error) {
	values := url.Values{}
	values.Set("type", "express")
	if params.Email != "" {
		values.Set("email", params.Email)
	}
	if params.Country != "" {
		values.Set("country", strings.ToUpper(params.Country))
	}

	var account Account
	if err := c.doRequest(ctx, http.MethodPost, "/v1/accounts", values, "", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *stripeClient) CreateAccountLink(ctx context.Context, params CreateAccountLinkParams) (*AccountLink, error) {
	values := url.Values{}
	values.Set("account", params.AccountID)
	values.Set("refresh_url", params.RefreshURL)
	values.Set("return_url", params.ReturnURL)
	values.Set("type", "account_onboarding")

	var link AccountLink
	if err := c.doRequest(ctx, http.MethodPost, "/v1/account_links", values, "", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *stripeClient) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
	out any,
) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return &Error{Status: resp.StatusCode}
		}
		return &Error{
			Code:    strings.TrimSpace(stripeErr.Error.Code),
			Message: strings.TrimSpace(stripeErr.Error.Message),
			Status:  resp.StatusCode,
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func setMetadata(values url.Values, metadata map[string]string) {
	for key, value := range metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		values.Set("metadata["+key+"]", value)
	}
}
