package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/processor"
	"github.com/smallbiznis/marketpay/internal/transaction/domain"
	"github.com/smallbiznis/marketpay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	CompanyRepo companydomain.Repository
	CompanySvc  companydomain.Service
	Processor   processor.Client
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	companyRepo companydomain.Repository
	companySvc  companydomain.Service
	processor   processor.Client
}

func New(p Params) domain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("transaction.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		companyRepo: p.CompanyRepo,
		companySvc:  p.CompanySvc,
		processor:   p.Processor,
	}
}

func (s *service) CreatePaymentIntent(ctx context.Context, req domain.CreatePaymentIntentRequest) (domain.CreatePaymentIntentResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return domain.CreatePaymentIntentResponse{}, domain.ErrInvalidCompany
	}
	customer := strings.TrimSpace(req.Customer)
	if customer == "" {
		return domain.CreatePaymentIntentResponse{}, domain.ErrInvalidCustomer
	}
	if req.Amount <= 0 {
		return domain.CreatePaymentIntentResponse{}, domain.ErrInvalidAmount
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return domain.CreatePaymentIntentResponse{}, domain.ErrInvalidCurrency
	}
	if req.ApplicationFeeBps < 0 || req.ApplicationFeeBps > 10000 {
		return domain.CreatePaymentIntentResponse{}, domain.ErrInvalidFee
	}

	company, err := s.companyRepo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return domain.CreatePaymentIntentResponse{}, err
	}
	if company == nil {
		return domain.CreatePaymentIntentResponse{}, companydomain.ErrNotFound
	}
	if company.ProcessorAccountID == nil || *company.ProcessorAccountID == "" {
		return domain.CreatePaymentIntentResponse{}, domain.ErrCompanyNotOnboarded
	}

	txnID := s.genID.Generate()
	fee := req.Amount * req.ApplicationFeeBps / 10000

	metadata := map[string]string{
		"transaction_id": txnID.String(),
		"company_id":     company.ID.String(),
	}
	for key, value := range req.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		metadata[key] = value
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, processor.CreatePaymentIntentParams{
		Amount:             req.Amount,
		Currency:           currency,
		Customer:           customer,
		DestinationAccount: *company.ProcessorAccountID,
		ApplicationFee:     fee,
		Description:        req.Description,
		Metadata:           metadata,
	})
	if err != nil {
		return domain.CreatePaymentIntentResponse{}, err
	}

	now := time.Now().UTC()
	txn := domain.PaymentTransaction{
		ID:                       txnID,
		CompanyID:                company.ID,
		Customer:                 customer,
		Amount:                   req.Amount,
		Currency:                 strings.ToUpper(currency),
		ProcessorPaymentIntentID: intent.ID,
		Status:                   domain.StatusPending,
		InternalStatus:           domain.InternalStatusAwaitingApproval,
		Description:              strings.TrimSpace(req.Description),
		Metadata:                 datatypes.JSONMap{"application_fee": fee},
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.repo.Insert(ctx, s.db, &txn); err != nil {
		return domain.CreatePaymentIntentResponse{}, err
	}

	return domain.CreatePaymentIntentResponse{
		Transaction:  txn,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, req domain.CreateCheckoutSessionRequest) (domain.CreateCheckoutSessionResponse, error) {
	if _, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID)); err != nil {
		return domain.CreateCheckoutSessionResponse{}, domain.ErrInvalidCompany
	}
	mode := strings.TrimSpace(req.Mode)
	if mode != processor.CheckoutModePayment && mode != processor.CheckoutModeSubscription {
		return domain.CreateCheckoutSessionResponse{}, domain.ErrInvalidMode
	}
	if strings.TrimSpace(req.PriceID) == "" {
		return domain.CreateCheckoutSessionResponse{}, domain.ErrInvalidPrice
	}
	if strings.TrimSpace(req.SuccessURL) == "" || strings.TrimSpace(req.CancelURL) == "" {
		return domain.CreateCheckoutSessionResponse{}, domain.ErrInvalidURL
	}

	customerID, err := s.companySvc.EnsureBillingCustomer(ctx, req.CompanyID)
	if err != nil {
		return domain.CreateCheckoutSessionResponse{}, err
	}

	metadata := map[string]string{"company_id": req.CompanyID}
	for key, value := range req.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		metadata[key] = value
	}

	session, err := s.processor.CreateCheckoutSession(ctx, processor.CreateCheckoutSessionParams{
		Mode:       mode,
		Customer:   customerID,
		PriceID:    strings.TrimSpace(req.PriceID),
		Quantity:   req.Quantity,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		return domain.CreateCheckoutSessionResponse{}, err
	}

	return domain.CreateCheckoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

func (s *service) List(ctx context.Context, req domain.ListTransactionsRequest) (domain.ListTransactionsResponse, error) {
	filter := domain.ListFilter{
		Customer: strings.TrimSpace(req.Customer),
	}
	if raw := strings.TrimSpace(req.CompanyID); raw != "" {
		companyID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListTransactionsResponse{}, domain.ErrInvalidCompany
		}
		filter.CompanyID = companyID
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		filter.Status = domain.Status(raw)
	}
	if raw := strings.TrimSpace(req.InternalStatus); raw != "" {
		filter.InternalStatus = domain.InternalStatus(raw)
	}

	page := req.Pagination.Normalize()
	// Fetch one extra row to learn whether more pages exist.
	probe := page
	probe.Limit = page.Limit + 1
	txns, err := s.repo.List(ctx, s.db, filter, probe)
	if err != nil {
		return domain.ListTransactionsResponse{}, err
	}

	hasMore := len(txns) > page.Limit
	if hasMore {
		txns = txns[:page.Limit]
	}

	out := make([]domain.PaymentTransaction, 0, len(txns))
	for _, txn := range txns {
		out = append(out, *txn)
	}
	return domain.ListTransactionsResponse{
		PageInfo: pagination.PageInfo{
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: hasMore,
		},
		Transactions: out,
	}, nil
}

func (s *service) GetByID(ctx context.Context, req domain.GetTransactionRequest) (domain.PaymentTransaction, error) {
	txn, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.PaymentTransaction{}, err
	}
	return *txn, nil
}

func (s *service) UpdateInternalStatus(ctx context.Context, req domain.UpdateInternalStatusRequest) (domain.PaymentTransaction, error) {
	// Set membership is checked before any row is read.
	status := domain.InternalStatus(strings.TrimSpace(req.InternalStatus))
	if !domain.ValidOperatorStatus(status) {
		return domain.PaymentTransaction{}, domain.ErrInvalidInternalStatus
	}

	txn, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.PaymentTransaction{}, err
	}

	// Only internal_status is written back; the status column belongs to
	// reconciliation and a delivery landing between this read and write
	// must not be reverted.
	var metadata datatypes.JSONMap
	if note := strings.TrimSpace(req.Note); note != "" {
		metadata = txn.Metadata
		if metadata == nil {
			metadata = datatypes.JSONMap{}
		}
		metadata["note"] = note
	}

	if err := s.repo.SetInternalStatusByID(ctx, s.db, txn.ID, status, metadata); err != nil {
		return domain.PaymentTransaction{}, err
	}
	txn.InternalStatus = status
	if metadata != nil {
		txn.Metadata = metadata
	}
	return *txn, nil
}

func (s *service) CancelSubscription(ctx context.Context, req domain.CancelSubscriptionRequest) error {
	subscriptionID := strings.TrimSpace(req.SubscriptionID)
	if subscriptionID == "" {
		return domain.ErrInvalidID
	}

	if _, err := s.processor.CancelSubscription(ctx, subscriptionID); err != nil {
		if errors.Is(err, processor.ErrResourceMissing) {
			return domain.ErrNotFound
		}
		return err
	}

	txn, err := s.repo.FindBySubscriptionID(ctx, s.db, subscriptionID)
	if err != nil {
		return err
	}
	if txn == nil {
		s.log.Warn("no local transaction for canceled subscription",
			zap.String("subscription_id", subscriptionID))
		return nil
	}

	metadata := txn.Metadata
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	if _, ok := metadata["canceled_at"]; !ok {
		metadata["canceled_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	return s.repo.UpdateWorkflow(ctx, s.db, txn.ID, domain.StatusCanceled, domain.InternalStatusCanceledByUser, metadata)
}

func (s *service) load(ctx context.Context, rawID string) (*domain.PaymentTransaction, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	txn, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrNotFound
	}
	return txn, nil
}
