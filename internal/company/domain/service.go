package domain

import (
	"context"
	"errors"
)

type CreateCompanyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GetCompanyRequest struct {
	ID string
}

// OnboardCompanyRequest starts payout onboarding with the processor. The
// redirect URLs are supplied by the caller, not configured.
type OnboardCompanyRequest struct {
	ID         string
	RefreshURL string `json:"refresh_url"`
	ReturnURL  string `json:"return_url"`
}

type OnboardCompanyResponse struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

type Service interface {
	Create(context.Context, CreateCompanyRequest) (Company, error)
	GetByID(context.Context, GetCompanyRequest) (Company, error)
	Onboard(context.Context, OnboardCompanyRequest) (OnboardCompanyResponse, error)
	// EnsureBillingCustomer creates the processor billing customer on
	// first use and returns its id.
	EnsureBillingCustomer(ctx context.Context, id string) (string, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidURL    = errors.New("invalid_url")
	ErrAlreadyExists = errors.New("company_exists")
	ErrNotFound      = errors.New("not_found")
)
