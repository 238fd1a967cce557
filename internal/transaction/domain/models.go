// Package domain contains persistence models for payment transactions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status mirrors the processor's authoritative payment state. It is
// mutated only by webhook reconciliation, never by direct user action.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
	StatusRefunded  Status = "refunded"
)

// InternalStatus is the business workflow state layered on top of the
// payment status. Reconciliation moves it on success/failure; operators
// move it through UpdateInternalStatus.
type InternalStatus string

const (
	InternalStatusAwaitingApproval   InternalStatus = "awaiting_approval"
	InternalStatusApproved           InternalStatus = "approved"
	InternalStatusDeclined           InternalStatus = "declined"
	InternalStatusFulfilled          InternalStatus = "fulfilled"
	InternalStatusCanceledByBusiness InternalStatus = "canceled_by_business"
	// InternalStatusCanceledByUser is set by the subscription-cancel
	// path only and is not accepted from operators.
	InternalStatusCanceledByUser InternalStatus = "canceled_by_user"
)

// operatorStatuses is the closed set accepted by UpdateInternalStatus.
var operatorStatuses = map[InternalStatus]struct{}{
	InternalStatusAwaitingApproval:   {},
	InternalStatusApproved:           {},
	InternalStatusDeclined:           {},
	InternalStatusFulfilled:          {},
	InternalStatusCanceledByBusiness: {},
}

// ValidOperatorStatus reports whether operators may request the status.
func ValidOperatorStatus(status InternalStatus) bool {
	_, ok := operatorStatuses[status]
	return ok
}

// PaymentTransaction records one attempted charge against a merchant's
// customer. ProcessorPaymentIntentID is the idempotency key for
// payment-lifecycle webhooks.
type PaymentTransaction struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Customer  string       `gorm:"not null" json:"customer"`
	Amount    int64        `gorm:"not null" json:"amount"`
	Currency  string       `gorm:"not null" json:"currency"`

	ProcessorPaymentIntentID string  `gorm:"column:processor_payment_intent_id;not null;uniqueIndex" json:"processor_payment_intent_id"`
	ProcessorSubscriptionID  *string `gorm:"column:processor_subscription_id" json:"processor_subscription_id,omitempty"`

	Status         Status         `gorm:"type:text;not null;default:'pending'" json:"status"`
	InternalStatus InternalStatus `gorm:"type:text;not null;default:'awaiting_approval'" json:"internal_status"`

	Description string            `gorm:"not null;default:''" json:"description"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentTransaction) TableName() string { return "payment_transactions" }
