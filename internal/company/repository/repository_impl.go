package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketpay/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO companies (
			id, name, email, processor_account_id, processor_customer_id,
			processor_subscription_id, subscription_status, access_level,
			subscription_expires_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		company.ID,
		company.Name,
		company.Email,
		company.ProcessorAccountID,
		company.ProcessorCustomerID,
		company.ProcessorSubscriptionID,
		company.SubscriptionStatus,
		company.AccessLevel,
		company.SubscriptionExpiresAt,
		company.Metadata,
		company.CreatedAt,
		company.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, processor_account_id, processor_customer_id,
			processor_subscription_id, subscription_status, access_level,
			subscription_expires_at, metadata, created_at, updated_at
		 FROM companies WHERE id = ?`,
		id,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, nil
	}
	return &company, nil
}

func (r *repo) FindByProcessorCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, processor_account_id, processor_customer_id,
			processor_subscription_id, subscription_status, access_level,
			subscription_expires_at, metadata, created_at, updated_at
		 FROM companies WHERE processor_customer_id = ?
		 LIMIT 1`,
		customerID,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, nil
	}
	return &company, nil
}

func (r *repo) SetProcessorAccountID(ctx context.Context, db *gorm.DB, id snowflake.ID, accountID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET processor_account_id = ?, updated_at = ?
		 WHERE id = ?`,
		accountID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) SetProcessorCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET processor_customer_id = ?, updated_at = ?
		 WHERE id = ?`,
		customerID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateSubscription(ctx context.Context, db *gorm.DB, customerID string, update domain.SubscriptionUpdate) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET processor_subscription_id = ?,
		     subscription_status = ?,
		     access_level = ?,
		     subscription_expires_at = ?,
		     updated_at = ?
		 WHERE processor_customer_id = ?`,
		update.ProcessorSubscriptionID,
		update.SubscriptionStatus,
		update.AccessLevel,
		update.ExpiresAt,
		time.Now().UTC(),
		customerID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
