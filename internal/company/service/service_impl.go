package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/processor"
	"github.com/smallbiznis/marketpay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Processor processor.Client
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	processor processor.Client
}

func New(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("company.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		processor: p.Processor,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateCompanyRequest) (domain.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Company{}, domain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Company{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	company := domain.Company{
		ID:          s.genID.Generate(),
		Name:        name,
		Email:       email,
		AccessLevel: domain.AccessLevelFree,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &company); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Company{}, domain.ErrAlreadyExists
		}
		return domain.Company{}, err
	}
	return company, nil
}

func (s *service) GetByID(ctx context.Context, req domain.GetCompanyRequest) (domain.Company, error) {
	company, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *service) Onboard(ctx context.Context, req domain.OnboardCompanyRequest) (domain.OnboardCompanyResponse, error) {
	if strings.TrimSpace(req.RefreshURL) == "" || strings.TrimSpace(req.ReturnURL) == "" {
		return domain.OnboardCompanyResponse{}, domain.ErrInvalidURL
	}
	company, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.OnboardCompanyResponse{}, err
	}

	accountID := ""
	if company.ProcessorAccountID != nil {
		accountID = *company.ProcessorAccountID
	}
	if accountID == "" {
		account, err := s.processor.CreateAccount(ctx, processor.CreateAccountParams{
			Email: company.Email,
		})
		if err != nil {
			return domain.OnboardCompanyResponse{}, err
		}
		accountID = account.ID
		if err := s.repo.SetProcessorAccountID(ctx, s.db, company.ID, accountID); err != nil {
			return domain.OnboardCompanyResponse{}, err
		}
	}

	link, err := s.processor.CreateAccountLink(ctx, processor.CreateAccountLinkParams{
		AccountID:  accountID,
		RefreshURL: req.RefreshURL,
		ReturnURL:  req.ReturnURL,
	})
	if err != nil {
		return domain.OnboardCompanyResponse{}, err
	}

	return domain.OnboardCompanyResponse{
		AccountID:     accountID,
		OnboardingURL: link.URL,
	}, nil
}

func (s *service) EnsureBillingCustomer(ctx context.Context, id string) (string, error) {
	company, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if company.ProcessorCustomerID != nil && *company.ProcessorCustomerID != "" {
		return *company.ProcessorCustomerID, nil
	}

	customer, err := s.processor.CreateCustomer(ctx, processor.CreateCustomerParams{
		Name:  company.Name,
		Email: company.Email,
		Metadata: map[string]string{
			"company_id": company.ID.String(),
		},
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.SetProcessorCustomerID(ctx, s.db, company.ID, customer.ID); err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (s *service) load(ctx context.Context, rawID string) (*domain.Company, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	company, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}
