package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, company *Company) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)
	FindByProcessorCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Company, error)
	SetProcessorAccountID(ctx context.Context, db *gorm.DB, id snowflake.ID, accountID string) error
	SetProcessorCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID string) error
	// UpdateSubscription applies the reconciliation mutation keyed by
	// processor customer id and reports whether a row matched.
	UpdateSubscription(ctx context.Context, db *gorm.DB, customerID string, update SubscriptionUpdate) (bool, error)
}
