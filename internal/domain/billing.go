package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/observability"
)

const (
	defaultEntriesLimit = 50
	maxEntriesLimit     = 1000
)

// BillingDeps groups the collaborators of the billing service.
type BillingDeps struct {
	Pricing     *PricingTable
	Margins     *MarginCalculator
	Policies    *PolicyCache
	PolicyStore PolicyStore
	Ledger      LedgerStore
	Writer      *LedgerWriter
	Cache       BalanceCache
	Prices      PriceSource
	Events      EventPublisher
}

// BillingService turns metered usage and plan changes into ledger entries.
type BillingService struct {
	pricing     *PricingTable
	margins     *MarginCalculator
	policies    *PolicyCache
	policyStore PolicyStore
	ledger      LedgerStore
	writer      *LedgerWriter
	cache       BalanceCache
	prices      PriceSource
	events      EventPublisher

	balances singleflight.Group
	policyMu sync.Mutex // serializes rounding updates so store and cache agree
	now      func() time.Time
}

// NewBillingService creates a new billing service (DI constructor).
func NewBillingService(deps BillingDeps) *BillingService {
	return &BillingService{
		pricing:     deps.Pricing,
		margins:     deps.Margins,
		policies:    deps.Policies,
		policyStore: deps.PolicyStore,
		ledger:      deps.Ledger,
		writer:      deps.Writer,
		cache:       deps.Cache,
		prices:      deps.Prices,
		events:      deps.Events,
		now:         time.Now,
	}
}

// RecordUsage prices one usage event and deducts the resulting credits.
// An event without tokens writes nothing and returns a nil entry. Any failure
// is returned to the caller so the event can be held for reprocessing.
func (s *BillingService) RecordUsage(ctx context.Context, event UsageEvent) (*LedgerEntry, error) {
	ctx = observability.WithUserID(ctx, event.UserID)
	ctx = observability.WithVendor(ctx, event.Vendor)
	ctx = observability.WithModel(ctx, event.Model)

	ctx, span := observability.Tracer().Start(ctx, "billing.RecordUsage",
		trace.WithAttributes(
			attribute.String("billing.vendor", event.Vendor),
			attribute.String("billing.model", event.Model),
			attribute.Int64("billing.input_tokens", event.InputTokens),
			attribute.Int64("billing.output_tokens", event.OutputTokens),
		))
	defer span.End()

	logger := observability.FromContext(ctx)

	entry, err := s.recordUsage(ctx, event)
	if err != nil {
		reason := rejectReason(err)
		observability.UsageRejectedTotal.WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		logger.Error("usage event rejected",
			observability.String("reason", reason),
			observability.String("request_id", event.RequestID),
			observability.Error(err))
		return nil, err
	}
	if entry == nil {
		logger.Debug("usage event without tokens, no ledger entry written")
		return nil, nil
	}

	span.SetAttributes(attribute.Int64("billing.delta_centi", int64(entry.DeltaCredits)))
	s.publish(ctx, "usage.recorded", map[string]interface{}{
		"entry_id":      entry.ID,
		"user_id":       entry.UserID,
		"vendor":        entry.Vendor,
		"model":         entry.Model,
		"delta_credits": entry.DeltaCredits.String(),
	})
	return entry, nil
}

func (s *BillingService) recordUsage(ctx context.Context, event UsageEvent) (*LedgerEntry, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if !event.HasUsage() {
		return nil, nil
	}

	price, err := s.pricing.Lookup(event.Vendor, event.Model)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.Current()
	if err != nil {
		return nil, err
	}

	base, err := price.BaseCost(event.InputTokens, event.OutputTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to compute vendor cost: %w", err)
	}

	marginPolicy := s.pricing.MarginFor(event.Vendor, event.Model)
	mctx := MarginContext{Vendor: event.Vendor, Model: event.Model}
	if _, tiered := marginPolicy.(Tiered); tiered {
		volume, volErr := s.periodVolume(ctx, event)
		if volErr != nil {
			return nil, volErr
		}
		mctx.PeriodTokens = volume
	}

	margin, err := s.margins.Apply(ctx, marginPolicy, base, mctx)
	if err != nil {
		return nil, err
	}

	billed := margin.Billed.Micros()
	vendorCost := base.Micros()

	credits, err := Convert(billed, policy)
	if err != nil {
		return nil, err
	}

	committed, _, err := s.writer.Append(ctx, LedgerEntry{
		UserID:        event.UserID,
		DeltaCredits:  -credits,
		Kind:          EntryKindUsageDeduction,
		SourceCostUSD: &billed,
		VendorCostUSD: &vendorCost,
		Increment:     policy.Increment,
		Vendor:        event.Vendor,
		Model:         event.Model,
		InputTokens:   event.InputTokens,
		OutputTokens:  event.OutputTokens,
		Reference:     event.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return &committed, nil
}

// periodVolume returns the user's tokens in the calendar month of the event,
// this event included.
func (s *BillingService) periodVolume(ctx context.Context, event UsageEvent) (int64, error) {
	at := event.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	since := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)

	prior, err := s.ledger.PeriodTokens(ctx, event.UserID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to read period volume: %w", err)
	}
	return prior + event.TotalTokens(), nil
}

// RecordProration computes a mid-cycle plan change and posts it to the owner's
// ledger. A charge deducts credits, a refund grants them.
func (s *BillingService) RecordProration(ctx context.Context, req ProrationRequest) (*LedgerEntry, error) {
	ctx = observability.WithUserID(ctx, req.UserID)
	ctx, span := observability.Tracer().Start(ctx, "billing.RecordProration",
		trace.WithAttributes(attribute.String("billing.subscription_id", req.SubscriptionID)))
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	amount, err := ComputeProration(req.OldPrice, req.NewPrice, req.DaysRemaining, req.CycleLengthDays)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	policy, err := s.policies.Current()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	credits, err := Convert(amount, policy)
	if err != nil {
		return nil, err
	}

	kind := ProrationKind(amount)
	committed, _, err := s.writer.Append(ctx, LedgerEntry{
		UserID:        req.UserID,
		DeltaCredits:  -credits,
		Kind:          kind,
		SourceCostUSD: &amount,
		Increment:     policy.Increment,
		Reference:     req.SubscriptionID,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	observability.FromContext(ctx).Info("proration recorded",
		observability.String("subscription_id", req.SubscriptionID),
		observability.String("kind", string(kind)),
		observability.Stringer("amount_usd", amount))
	s.publish(ctx, "proration.recorded", map[string]interface{}{
		"entry_id":        committed.ID,
		"subscription_id": req.SubscriptionID,
		"kind":            string(kind),
		"amount_usd":      amount.String(),
		"delta_credits":   committed.DeltaCredits.String(),
	})
	return &committed, nil
}

// RecordAdjustment posts a manual credit adjustment. Only admins may adjust
// balances and the amount must be representable under the current increment.
func (s *BillingService) RecordAdjustment(
	ctx context.Context,
	principal Principal,
	userID string,
	credits money.Centi,
	note string,
) (*LedgerEntry, error) {
	if err := principal.Require(ScopeBillingAdmin); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}

	policy, err := s.policies.Current()
	if err != nil {
		return nil, err
	}

	committed, _, err := s.writer.Append(ctx, LedgerEntry{
		UserID:       userID,
		DeltaCredits: credits,
		Kind:         EntryKindManualAdjustment,
		Increment:    policy.Increment,
		Reference:    note,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "adjustment.recorded", map[string]interface{}{
		"entry_id":      committed.ID,
		"user_id":       userID,
		"actor":         principal.UserID,
		"delta_credits": credits.String(),
	})
	return &committed, nil
}

// Balance returns the user's balance, served from the cache when possible.
// Concurrent misses for the same user share one store read. The fill is
// ordered by entry count against balances the ledger writer caches, so a read
// that lost a race with a write is dropped by the cache.
func (s *BillingService) Balance(ctx context.Context, userID string) (Balance, error) {
	if userID == "" {
		return Balance{}, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}

	logger := observability.FromContext(ctx)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn("balance cache get failed, reading ledger", observability.Error(err))
		}
	}

	v, err, _ := s.balances.Do(userID, func() (interface{}, error) {
		balance, loadErr := s.ledger.Balance(ctx, userID)
		if loadErr != nil {
			return Balance{}, loadErr
		}
		if s.cache != nil {
			if setErr := s.cache.Set(ctx, balance); setErr != nil {
				logger.Warn("failed to cache balance", observability.Error(setErr))
			}
		}
		return balance, nil
	})
	if err != nil {
		return Balance{}, fmt.Errorf("failed to load balance: %w", err)
	}
	return v.(Balance), nil
}

// Entries returns the user's most recent ledger entries, newest first.
func (s *BillingService) Entries(ctx context.Context, userID string, limit int) ([]LedgerEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	switch {
	case limit <= 0:
		limit = defaultEntriesLimit
	case limit > maxEntriesLimit:
		limit = maxEntriesLimit
	}
	return s.ledger.Entries(ctx, userID, limit)
}

// Reconcile audits the stored balance against the ledger sum.
func (s *BillingService) Reconcile(ctx context.Context, principal Principal, userID string) (Reconciliation, error) {
	if err := principal.Require(ScopeBillingAdmin); err != nil {
		return Reconciliation{}, err
	}

	rec, err := s.ledger.Reconcile(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}
	if !rec.Consistent {
		observability.FromContext(ctx).Error("ledger reconciliation mismatch",
			observability.String("user_id", userID),
			observability.Stringer("stored", rec.Stored),
			observability.Stringer("ledger_sum", rec.LedgerSum))
	}
	return rec, nil
}

// RoundingPolicy returns the policy currently applied to conversions.
func (s *BillingService) RoundingPolicy(_ context.Context) (RoundingPolicy, error) {
	return s.policies.Current()
}

// UpdateRoundingIncrement validates, persists and then activates a new
// increment. If persisting fails the active policy is unchanged. Concurrent
// updates apply one at a time.
func (s *BillingService) UpdateRoundingIncrement(
	ctx context.Context,
	principal Principal,
	raw string,
) (RoundingPolicy, error) {
	if err := principal.Require(ScopeBillingAdmin); err != nil {
		return RoundingPolicy{}, err
	}

	increment, err := ParseIncrement(raw)
	if err != nil {
		return RoundingPolicy{}, err
	}

	s.policyMu.Lock()
	defer s.policyMu.Unlock()

	previous, _ := s.policies.Current()
	policy := RoundingPolicy{Increment: increment, EffectiveSince: s.now().UTC()}

	if err := s.policyStore.SaveRoundingPolicy(ctx, policy); err != nil {
		return RoundingPolicy{}, fmt.Errorf("failed to persist rounding policy: %w", err)
	}
	if err := s.policies.Reload(policy); err != nil {
		return RoundingPolicy{}, err
	}

	observability.FromContext(ctx).Info("rounding policy changed",
		observability.String("actor", principal.UserID),
		observability.Stringer("previous_increment", previous.Increment),
		observability.Stringer("increment", policy.Increment))
	s.publish(ctx, "rounding.changed", map[string]interface{}{
		"actor":     principal.UserID,
		"previous":  previous.Increment.String(),
		"increment": policy.Increment.String(),
	})
	return policy, nil
}

// ReloadPricing loads a fresh sheet from the configured price source and swaps
// it in. On error the current table stays in place.
func (s *BillingService) ReloadPricing(ctx context.Context, principal Principal) (string, error) {
	if err := principal.Require(ScopeBillingAdmin); err != nil {
		return "", err
	}
	if s.prices == nil {
		return "", errors.New("no price source configured")
	}

	sheet, err := s.prices.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load prices from %s: %w", s.prices.Name(), err)
	}
	if err := s.pricing.Swap(sheet); err != nil {
		return "", fmt.Errorf("failed to apply prices from %s: %w", s.prices.Name(), err)
	}

	observability.FromContext(ctx).Info("pricing table reloaded",
		observability.String("source", s.prices.Name()),
		observability.String("version", sheet.Version),
		observability.Int("prices", s.pricing.Size()))
	return sheet.Version, nil
}

func (s *BillingService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, data)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidUsage):
		return "invalid_usage"
	case errors.Is(err, ErrPriceNotFound):
		return "price_not_found"
	case errors.Is(err, ErrCacheUninitialized):
		return "policy_uninitialized"
	case errors.Is(err, ErrMarginResolutionFailed):
		return "margin_resolution_failed"
	case errors.Is(err, ErrLedgerWriteConflict):
		return "write_conflict"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, ErrAmountOverflow):
		return "overflow"
	default:
		return "internal"
	}
}
