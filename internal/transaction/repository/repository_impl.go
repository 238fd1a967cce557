package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketpay/internal/transaction/domain"
	"github.com/smallbiznis/marketpay/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `id, company_id, customer, amount, currency,
	processor_payment_intent_id, processor_subscription_id,
	status, internal_status, description, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *domain.PaymentTransaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (
			id, company_id, customer, amount, currency,
			processor_payment_intent_id, processor_subscription_id,
			status, internal_status, description, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.CompanyID,
		txn.Customer,
		txn.Amount,
		txn.Currency,
		txn.ProcessorPaymentIntentID,
		txn.ProcessorSubscriptionID,
		txn.Status,
		txn.InternalStatus,
		txn.Description,
		txn.Metadata,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentTransaction, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*domain.PaymentTransaction, error) {
	return r.findOne(ctx, db, `processor_subscription_id = ?`, subscriptionID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM payment_transactions WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.PaymentTransaction, error) {
	var txns []*domain.PaymentTransaction
	stmt := db.WithContext(ctx).Model(&domain.PaymentTransaction{})
	if filter.CompanyID != 0 {
		stmt = stmt.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.InternalStatus != "" {
		stmt = stmt.Where("internal_status = ?", filter.InternalStatus)
	}
	if filter.Customer != "" {
		stmt = stmt.Where("customer = ?", filter.Customer)
	}
	err := page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) SetStatusByPaymentIntentID(ctx context.Context, db *gorm.DB, intentID string, status domain.Status, internalStatus domain.InternalStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?, internal_status = ?, updated_at = ?
		 WHERE processor_payment_intent_id = ?`,
		status,
		internalStatus,
		time.Now().UTC(),
		intentID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetInternalStatusByID(ctx context.Context, db *gorm.DB, id snowflake.ID, internalStatus domain.InternalStatus, metadata datatypes.JSONMap) error {
	if metadata == nil {
		return db.WithContext(ctx).Exec(
			`UPDATE payment_transactions
			 SET internal_status = ?, updated_at = ?
			 WHERE id = ?`,
			internalStatus,
			time.Now().UTC(),
			id,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET internal_status = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		internalStatus,
		metadata,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateWorkflow(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, internalStatus domain.InternalStatus, metadata datatypes.JSONMap) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?, internal_status = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		internalStatus,
		metadata,
		time.Now().UTC(),
		id,
	).Error
}
