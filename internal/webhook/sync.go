package webhook

import (
	"context"
	"strings"
	"time"

	companydomain "github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/config"
	"go.uber.org/zap"
)

// PlanTiers maps processor price ids to access tiers. Any price id
// missing from the map resolves to the free tier.
type PlanTiers map[string]companydomain.AccessLevel

func NewPlanTiers(cfg config.Config) PlanTiers {
	tiers := PlanTiers{}
	if cfg.StripePriceBasic != "" {
		tiers[cfg.StripePriceBasic] = companydomain.AccessLevelBasic
	}
	if cfg.StripePricePremium != "" {
		tiers[cfg.StripePricePremium] = companydomain.AccessLevelPremium
	}
	return tiers
}

func (t PlanTiers) Resolve(priceID string) companydomain.AccessLevel {
	if tier, ok := t[priceID]; ok {
		return tier
	}
	return companydomain.AccessLevelFree
}

// SubscriptionState is the minimal subscription snapshot reconciliation
// needs: identity, status, the billed plan and the period end.
type SubscriptionState struct {
	ID        string
	Status    string
	PriceID   string
	PeriodEnd int64
}

// syncSubscription applies a subscription snapshot to the owning
// company. It is the only place plan-to-tier translation happens; every
// handler that learns new subscription state funnels through here.
func (h *Handlers) syncSubscription(ctx context.Context, customerID string, state SubscriptionState) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		h.log.Warn("subscription event without customer reference",
			zap.String("subscription_id", state.ID))
		return nil
	}

	accessLevel := h.tiers.Resolve(state.PriceID)
	status := strings.ToLower(strings.TrimSpace(state.Status))
	// A canceled or unpaid subscription never grants paid access, even
	// when the last-known plan was a paid one.
	if status == "canceled" || status == "unpaid" {
		accessLevel = companydomain.AccessLevelFree
	}

	var expiresAt *time.Time
	if state.PeriodEnd > 0 {
		t := time.Unix(state.PeriodEnd, 0).UTC()
		expiresAt = &t
	}

	matched, err := h.companyRepo.UpdateSubscription(ctx, h.db, customerID, companydomain.SubscriptionUpdate{
		ProcessorSubscriptionID: state.ID,
		SubscriptionStatus:      status,
		AccessLevel:             accessLevel,
		ExpiresAt:               expiresAt,
	})
	if err != nil {
		return err
	}
	if !matched {
		// Delivery order relative to local writes is not guaranteed;
		// the sender redelivers until the company row exists.
		h.log.Warn("no company for processor customer",
			zap.String("processor_customer_id", customerID),
			zap.String("subscription_id", state.ID))
		return nil
	}

	h.log.Info("subscription synced",
		zap.String("processor_customer_id", customerID),
		zap.String("subscription_id", state.ID),
		zap.String("status", status),
		zap.String("access_level", string(accessLevel)))
	return nil
}
