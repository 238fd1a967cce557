package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketpay/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListFilter struct {
	CompanyID      snowflake.ID
	Status         Status
	InternalStatus InternalStatus
	Customer       string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *PaymentTransaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentTransaction, error)
	FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*PaymentTransaction, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*PaymentTransaction, error)

	// SetStatusByPaymentIntentID applies the reconciliation mutation as
	// one unconditional UPDATE keyed by payment-intent id and reports
	// whether a row matched. Safe under concurrent redelivery.
	SetStatusByPaymentIntentID(ctx context.Context, db *gorm.DB, intentID string, status Status, internalStatus InternalStatus) (bool, error)

	// SetInternalStatusByID persists an operator workflow mutation. The
	// status column stays untouched so a reconciliation write landing
	// between the operator's read and this write is never reverted. A nil
	// metadata map leaves the metadata column alone.
	SetInternalStatusByID(ctx context.Context, db *gorm.DB, id snowflake.ID, internalStatus InternalStatus, metadata datatypes.JSONMap) error

	// UpdateWorkflow persists the cancellation mutation of both workflow
	// fields together with the merged metadata map.
	UpdateWorkflow(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, internalStatus InternalStatus, metadata datatypes.JSONMap) error
}
