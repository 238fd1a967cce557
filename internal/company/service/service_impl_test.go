package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/company/repository"
	"github.com/smallbiznis/marketpay/internal/processor"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const companiesSchema = `
CREATE TABLE companies (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	processor_account_id TEXT,
	processor_customer_id TEXT,
	processor_subscription_id TEXT,
	subscription_status TEXT NOT NULL DEFAULT '',
	access_level TEXT NOT NULL DEFAULT 'free',
	subscription_expires_at DATETIME,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);`

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.Exec(companiesSchema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return gdb
}

type fakeProcessor struct {
	processor.Client

	accountCalls  int
	customerCalls int
	lastCustomer  processor.CreateCustomerParams
}

func (f *fakeProcessor) CreateAccount(ctx context.Context, params processor.CreateAccountParams) (*processor.Account, error) {
	f.accountCalls++
	return &processor.Account{ID: fmt.Sprintf("acct_fake_%d", f.accountCalls)}, nil
}

func (f *fakeProcessor) CreateAccountLink(ctx context.Context, params processor.CreateAccountLinkParams) (*processor.AccountLink, error) {
	return &processor.AccountLink{URL: "https://connect.example.com/onboard/" + params.AccountID}, nil
}

func (f *fakeProcessor) CreateCustomer(ctx context.Context, params processor.CreateCustomerParams) (*processor.Customer, error) {
	f.customerCalls++
	f.lastCustomer = params
	return &processor.Customer{ID: fmt.Sprintf("cus_fake_%d", f.customerCalls), Name: params.Name, Email: params.Email}, nil
}

type serviceFixture struct {
	db        *gorm.DB
	svc       domain.Service
	processor *fakeProcessor
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	gdb := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	fake := &fakeProcessor{}
	svc := New(Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Processor: fake,
	})
	return &serviceFixture{db: gdb, svc: svc, processor: fake}
}

func TestCreateCompany(t *testing.T) {
	f := newServiceFixture(t)

	company, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{
		Name:  "  Acme Outdoors  ",
		Email: "Owner@Acme.example",
	})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if company.Name != "Acme Outdoors" {
		t.Fatalf("expected trimmed name, got %q", company.Name)
	}
	if company.Email != "owner@acme.example" {
		t.Fatalf("expected lowercased email, got %q", company.Email)
	}
	if company.AccessLevel != domain.AccessLevelFree {
		t.Fatalf("new companies start on the free tier, got %s", company.AccessLevel)
	}

	got, err := f.svc.GetByID(context.Background(), domain.GetCompanyRequest{ID: company.ID.String()})
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if got.ID != company.ID {
		t.Fatalf("expected id %s, got %s", company.ID, got.ID)
	}
}

func TestCreateCompanyValidation(t *testing.T) {
	f := newServiceFixture(t)

	if _, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{Email: "a@b.c"}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{Name: "Acme", Email: "not-an-email"}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestCreateCompanyDuplicate(t *testing.T) {
	f := newServiceFixture(t)

	if _, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{Name: "Acme", Email: "owner@acme.example"}); err != nil {
		t.Fatalf("create company: %v", err)
	}
	_, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{Name: "Acme", Email: "owner@acme.example"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestOnboardReusesAccount(t *testing.T) {
	f := newServiceFixture(t)
	company, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{Name: "Acme", Email: "owner@acme.example"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}

	req := domain.OnboardCompanyRequest{
		ID:         company.ID.String(),
		RefreshURL: "https://app.example.com/onboarding/refresh",
		ReturnURL:  "https://app.example.com/onboarding/done",
	}
	first, err := f.svc.Onboard(context.Background(), req)
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if first.AccountID != "acct_fake_1" {
		t.Fatalf("expected acct_fake_1, got %s", first.AccountID)
	}
	if first.OnboardingURL == "" {
		t.Fatalf("expected an onboarding link")
	}

	// A second onboarding attempt reuses the stored account.
	second, err := f.svc.Onboard(context.Background(), req)
	if err != nil {
		t.Fatalf("second onboard: %v", err)
	}
	if second.AccountID != first.AccountID {
		t.Fatalf("expected reused account %s, got %s", first.AccountID, second.AccountID)
	}
	if f.processor.accountCalls != 1 {
		t.Fatalf("expected a single account creation, got %d", f.processor.accountCalls)
	}
}

func TestOnboardRequiresURLs(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Onboard(context.Background(), domain.OnboardCompanyRequest{ID: "1"})
	if !errors.Is(err, domain.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestEnsureBillingCustomerIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	company, err := f.svc.Create(context.Background(), domain.CreateCompanyRequest{Name: "Acme", Email: "owner@acme.example"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}

	first, err := f.svc.EnsureBillingCustomer(context.Background(), company.ID.String())
	if err != nil {
		t.Fatalf("ensure billing customer: %v", err)
	}
	if first != "cus_fake_1" {
		t.Fatalf("expected cus_fake_1, got %s", first)
	}
	if f.processor.lastCustomer.Metadata["company_id"] != company.ID.String() {
		t.Fatalf("expected company correlation metadata, got %v", f.processor.lastCustomer.Metadata)
	}

	second, err := f.svc.EnsureBillingCustomer(context.Background(), company.ID.String())
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second != first {
		t.Fatalf("expected stable customer id, got %s then %s", first, second)
	}
	if f.processor.customerCalls != 1 {
		t.Fatalf("expected a single customer creation, got %d", f.processor.customerCalls)
	}
}

func TestGetCompanyUnknownID(t *testing.T) {
	f := newServiceFixture(t)

	if _, err := f.svc.GetByID(context.Background(), domain.GetCompanyRequest{ID: "999"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), domain.GetCompanyRequest{ID: "abc"}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
