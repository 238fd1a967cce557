// Package domain contains persistence models for merchant companies.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AccessLevel is the feature tier derived from the company's current
// subscription plan.
type AccessLevel string

const (
	AccessLevelFree    AccessLevel = "free"
	AccessLevelBasic   AccessLevel = "basic"
	AccessLevelPremium AccessLevel = "premium"
)

// Company is a merchant account selling through the marketplace.
type Company struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	Name  string       `gorm:"not null" json:"name"`
	Email string       `gorm:"not null" json:"email"`

	// ProcessorAccountID is set once payout onboarding completes.
	ProcessorAccountID *string `gorm:"column:processor_account_id" json:"processor_account_id,omitempty"`
	// ProcessorCustomerID is set once a billing customer exists; every
	// subscription reconciliation locates the company by this key.
	ProcessorCustomerID *string `gorm:"column:processor_customer_id" json:"processor_customer_id,omitempty"`

	ProcessorSubscriptionID *string     `gorm:"column:processor_subscription_id" json:"processor_subscription_id,omitempty"`
	SubscriptionStatus      string      `gorm:"not null;default:''" json:"subscription_status"`
	AccessLevel             AccessLevel `gorm:"type:text;not null;default:'free'" json:"access_level"`
	SubscriptionExpiresAt   *time.Time  `gorm:"column:subscription_expires_at" json:"subscription_expires_at,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// SubscriptionUpdate is the single-row mutation written by subscription
// reconciliation. The new state never depends on the prior row state, so
// it is applied as one unconditional UPDATE keyed by processor customer id.
type SubscriptionUpdate struct {
	ProcessorSubscriptionID string
	SubscriptionStatus      string
	AccessLevel             AccessLevel
	ExpiresAt               *time.Time
}
