package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	companydomain "github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/notify"
	"github.com/smallbiznis/marketpay/internal/processor"
	txndomain "github.com/smallbiznis/marketpay/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// billingReasons for which a paid invoice carries new subscription
// state. Other reasons (manual invoices, one-off charges) are no-ops.
var subscriptionBillingReasons = map[string]struct{}{
	"subscription_create": {},
	"subscription_cycle":  {},
	"subscription_update": {},
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	TxnRepo     txndomain.Repository
	CompanyRepo companydomain.Repository
	Processor   processor.Client
	Sink        notify.Sink
	Tiers       PlanTiers
}

// Handlers holds one reconciliation method per event category. Every
// method is safe to apply twice for the same payload: mutations are
// unconditional single-row updates keyed by a processor identifier.
type Handlers struct {
	db          *gorm.DB
	log         *zap.Logger
	txnRepo     txndomain.Repository
	companyRepo companydomain.Repository
	processor   processor.Client
	sink        notify.Sink
	tiers       PlanTiers
}

func NewHandlers(p Params) *Handlers {
	return &Handlers{
		db:          p.DB,
		log:         p.Log.Named("webhook.handlers"),
		txnRepo:     p.TxnRepo,
		companyRepo: p.CompanyRepo,
		processor:   p.Processor,
		sink:        p.Sink,
		tiers:       p.Tiers,
	}
}

// Register binds every handler to its event type tag.
func (h *Handlers) Register(router *Router) {
	router.Handle(EventPaymentIntentSucceeded, h.handlePaymentIntentSucceeded)
	router.Handle(EventPaymentIntentFailed, h.handlePaymentIntentFailed)
	router.Handle(EventCheckoutCompleted, h.handleCheckoutCompleted)
	router.Handle(EventSubscriptionCreated, h.handleSubscriptionCreated)
	router.Handle(EventSubscriptionUpdated, h.handleSubscriptionUpdated)
	router.Handle(EventSubscriptionDeleted, h.handleSubscriptionDeleted)
	router.Handle(EventInvoicePaid, h.handleInvoicePaid)
	router.Handle(EventInvoicePaymentFailed, h.handleInvoicePaymentFailed)
}

func (h *Handlers) handlePaymentIntentSucceeded(ctx context.Context, event *Event) error {
	return h.settlePaymentIntent(ctx, event, txndomain.StatusSucceeded, txndomain.InternalStatusAwaitingApproval)
}

func (h *Handlers) handlePaymentIntentFailed(ctx context.Context, event *Event) error {
	return h.settlePaymentIntent(ctx, event, txndomain.StatusFailed, txndomain.InternalStatusDeclined)
}

func (h *Handlers) settlePaymentIntent(ctx context.Context, event *Event, status txndomain.Status, internalStatus txndomain.InternalStatus) error {
	var intent paymentIntentObject
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}
	if strings.TrimSpace(intent.ID) == "" {
		return fmt.Errorf("payment intent event %s without object id", event.ID)
	}
	return h.applyPaymentIntentStatus(ctx, event, intent.ID, status, internalStatus)
}

func (h *Handlers) applyPaymentIntentStatus(ctx context.Context, event *Event, intentID string, status txndomain.Status, internalStatus txndomain.InternalStatus) error {
	matched, err := h.txnRepo.SetStatusByPaymentIntentID(ctx, h.db, intentID, status, internalStatus)
	if err != nil {
		return err
	}
	if !matched {
		// The event may outrun the local insert; the sender redelivers.
		h.log.Warn("no transaction for payment intent",
			zap.String("payment_intent_id", intentID),
			zap.String("event_id", event.ID))
		return nil
	}
	h.log.Info("payment intent reconciled",
		zap.String("payment_intent_id", intentID),
		zap.String("status", string(status)))
	return nil
}

func (h *Handlers) handleCheckoutCompleted(ctx context.Context, event *Event) error {
	var session checkoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	switch session.Mode {
	case processor.CheckoutModeSubscription:
		if strings.TrimSpace(session.SubscriptionID) == "" {
			h.log.Warn("subscription checkout without subscription id",
				zap.String("session_id", session.ID))
			return nil
		}
		// The session embeds only the subscription id; fetch the full
		// object so the sync sees status, plan and period end.
		sub, err := h.processor.GetSubscription(ctx, session.SubscriptionID)
		if err != nil {
			return fmt.Errorf("fetch subscription %s: %w", session.SubscriptionID, err)
		}
		customerID := sub.CustomerID
		if customerID == "" {
			customerID = session.Customer
		}
		return h.syncSubscription(ctx, customerID, SubscriptionState{
			ID:        sub.ID,
			Status:    sub.Status,
			PriceID:   sub.PriceID,
			PeriodEnd: sub.CurrentPeriodEnd,
		})
	case processor.CheckoutModePayment:
		if strings.TrimSpace(session.PaymentIntent) == "" {
			h.log.Warn("payment checkout without payment intent",
				zap.String("session_id", session.ID))
			return nil
		}
		return h.applyPaymentIntentStatus(ctx, event, session.PaymentIntent,
			txndomain.StatusSucceeded, txndomain.InternalStatusAwaitingApproval)
	default:
		h.log.Debug("checkout session with unhandled mode",
			zap.String("session_id", session.ID),
			zap.String("mode", session.Mode))
		return nil
	}
}

func (h *Handlers) handleSubscriptionCreated(ctx context.Context, event *Event) error {
	sub, err := decodeSubscription(event)
	if err != nil {
		return err
	}
	if err := h.syncSubscription(ctx, sub.Customer, subscriptionState(sub)); err != nil {
		return err
	}
	h.sink.Notify(ctx, fmt.Sprintf("subscription %s created for customer %s", sub.ID, sub.Customer))
	return nil
}

func (h *Handlers) handleSubscriptionUpdated(ctx context.Context, event *Event) error {
	sub, err := decodeSubscription(event)
	if err != nil {
		return err
	}
	return h.syncSubscription(ctx, sub.Customer, subscriptionState(sub))
}

func (h *Handlers) handleSubscriptionDeleted(ctx context.Context, event *Event) error {
	sub, err := decodeSubscription(event)
	if err != nil {
		return err
	}
	// The deletion payload may still carry the old plan; synthesize the
	// terminal state so access drops to free immediately.
	err = h.syncSubscription(ctx, sub.Customer, SubscriptionState{
		ID:        sub.ID,
		Status:    "canceled",
		PriceID:   "",
		PeriodEnd: time.Now().UTC().Unix(),
	})
	if err != nil {
		return err
	}
	h.sink.Notify(ctx, fmt.Sprintf("subscription %s canceled for customer %s", sub.ID, sub.Customer))
	return nil
}

func (h *Handlers) handleInvoicePaid(ctx context.Context, event *Event) error {
	var invoice invoiceObject
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	if _, ok := subscriptionBillingReasons[invoice.BillingReason]; !ok {
		return nil
	}
	if strings.TrimSpace(invoice.SubscriptionID) == "" {
		return nil
	}

	sub, err := h.processor.GetSubscription(ctx, invoice.SubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", invoice.SubscriptionID, err)
	}
	customerID := sub.CustomerID
	if customerID == "" {
		customerID = invoice.Customer
	}
	return h.syncSubscription(ctx, customerID, SubscriptionState{
		ID:        sub.ID,
		Status:    sub.Status,
		PriceID:   sub.PriceID,
		PeriodEnd: sub.CurrentPeriodEnd,
	})
}

func (h *Handlers) handleInvoicePaymentFailed(ctx context.Context, event *Event) error {
	var invoice invoiceObject
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	if strings.TrimSpace(invoice.SubscriptionID) == "" {
		return nil
	}

	sub, err := h.processor.GetSubscription(ctx, invoice.SubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", invoice.SubscriptionID, err)
	}
	customerID := sub.CustomerID
	if customerID == "" {
		customerID = invoice.Customer
	}
	if err := h.syncSubscription(ctx, customerID, SubscriptionState{
		ID:        sub.ID,
		Status:    sub.Status,
		PriceID:   sub.PriceID,
		PeriodEnd: sub.CurrentPeriodEnd,
	}); err != nil {
		return err
	}
	h.sink.Notify(ctx, fmt.Sprintf("invoice payment failed for customer %s (subscription %s)", customerID, sub.ID))
	return nil
}

func decodeSubscription(event *Event) (subscriptionObject, error) {
	var sub subscriptionObject
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return subscriptionObject{}, fmt.Errorf("decode subscription: %w", err)
	}
	if strings.TrimSpace(sub.ID) == "" {
		return subscriptionObject{}, fmt.Errorf("subscription event %s without object id", event.ID)
	}
	return sub, nil
}

func subscriptionState(sub subscriptionObject) SubscriptionState {
	return SubscriptionState{
		ID:        sub.ID,
		Status:    sub.Status,
		PriceID:   sub.priceID(),
		PeriodEnd: sub.CurrentPeriodEnd,
	}
}
