package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/observability"
)

// MarginKind tags the MarginPolicy variants.
type MarginKind string

const (
	MarginFixed   MarginKind = "fixed"
	MarginTiered  MarginKind = "tiered"
	MarginDynamic MarginKind = "dynamic"
)

// MarginPolicy converts a vendor cost into a billed cost. It is a closed set
// of variants: FixedPercentage, Tiered and Dynamic.
type MarginPolicy interface {
	Kind() MarginKind
	isMarginPolicy()
}

// FixedPercentage bills base * (1 + Rate).
type FixedPercentage struct {
	Rate money.RatePPM
}

// Bracket applies Rate from FromTokens of cumulative period volume upward.
type Bracket struct {
	FromTokens int64
	Rate       money.RatePPM
}

// Tiered picks the bracket containing the user's cumulative period volume.
// Brackets are ordered by FromTokens and the first starts at zero.
type Tiered struct {
	Brackets []Bracket
}

// Dynamic asks a MarginResolver for the rate. Fallback is used when the
// resolver fails and no rate was resolved earlier for the same model.
type Dynamic struct {
	Fallback FixedPercentage
}

func (FixedPercentage) Kind() MarginKind { return MarginFixed }
func (Tiered) Kind() MarginKind          { return MarginTiered }
func (Dynamic) Kind() MarginKind         { return MarginDynamic }

func (FixedPercentage) isMarginPolicy() {}
func (Tiered) isMarginPolicy()          {}
func (Dynamic) isMarginPolicy()         {}

// RateFor returns the bracket rate for volume. A volume sitting exactly on a
// boundary belongs to both neighbouring brackets and resolves to the cheaper one.
func (t Tiered) RateFor(volume int64) money.RatePPM {
	idx := sort.Search(len(t.Brackets), func(i int) bool {
		return t.Brackets[i].FromTokens > volume
	}) - 1
	if idx < 0 {
		idx = 0
	}

	rate := t.Brackets[idx].Rate
	if idx > 0 && t.Brackets[idx].FromTokens == volume && t.Brackets[idx-1].Rate < rate {
		rate = t.Brackets[idx-1].Rate
	}
	return rate
}

// ValidateMargin checks a policy before it becomes visible in the pricing table.
func ValidateMargin(policy MarginPolicy) error {
	switch p := policy.(type) {
	case FixedPercentage:
		return validateRate(p.Rate)
	case Tiered:
		if len(p.Brackets) == 0 {
			return fmt.Errorf("%w: tiered margin needs at least one bracket", ErrInvalidMargin)
		}
		if p.Brackets[0].FromTokens != 0 {
			return fmt.Errorf("%w: first bracket must start at 0 tokens", ErrInvalidMargin)
		}
		for i, b := range p.Brackets {
			if err := validateRate(b.Rate); err != nil {
				return err
			}
			if i > 0 && b.FromTokens <= p.Brackets[i-1].FromTokens {
				return fmt.Errorf("%w: brackets must be strictly ascending", ErrInvalidMargin)
			}
		}
		return nil
	case Dynamic:
		return validateRate(p.Fallback.Rate)
	case nil:
		return fmt.Errorf("%w: policy is nil", ErrInvalidMargin)
	default:
		return fmt.Errorf("%w: unknown policy %T", ErrInvalidMargin, policy)
	}
}

func validateRate(rate money.RatePPM) error {
	if rate < -money.PPM {
		return fmt.Errorf("%w: rate %s would bill a negative amount", ErrInvalidMargin, rate)
	}
	return nil
}

// MarginContext carries what the variants need beyond the base cost.
type MarginContext struct {
	Vendor       string
	Model        string
	PeriodTokens int64
}

// MarginResult is the outcome of applying a margin policy.
type MarginResult struct {
	Billed   money.Picos
	Rate     money.RatePPM
	Kind     MarginKind
	Degraded bool
	Cause    error
}

// MarginCalculator applies margin policies to base costs.
type MarginCalculator struct {
	resolver   MarginResolver
	failClosed bool
	lastKnown  sync.Map // priceKey -> money.RatePPM
}

// NewMarginCalculator creates a calculator. resolver may be nil, in which case
// dynamic policies always use their fallback. With failClosed a resolver
// failure is returned instead of degrading to a fixed rate.
func NewMarginCalculator(resolver MarginResolver, failClosed bool) *MarginCalculator {
	return &MarginCalculator{
		resolver:   resolver,
		failClosed: failClosed,
	}
}

// Apply computes the billed cost for base under policy.
func (c *MarginCalculator) Apply(
	ctx context.Context,
	policy MarginPolicy,
	base money.Picos,
	mctx MarginContext,
) (MarginResult, error) {
	result := MarginResult{Kind: policy.Kind()}

	switch p := policy.(type) {
	case FixedPercentage:
		result.Rate = p.Rate
	case Tiered:
		if len(p.Brackets) == 0 {
			return MarginResult{}, fmt.Errorf("%w: tiered margin has no brackets", ErrInvalidMargin)
		}
		result.Rate = p.RateFor(mctx.PeriodTokens)
	case Dynamic:
		rate, cause := c.resolveDynamic(ctx, p, mctx)
		if cause != nil {
			if c.failClosed {
				return MarginResult{}, cause
			}
			result.Degraded = true
			result.Cause = cause
		}
		result.Rate = rate
	default:
		return MarginResult{}, fmt.Errorf("%w: unknown policy %T", ErrInvalidMargin, policy)
	}

	billed, err := money.MulDivRound(int64(base), money.PPM+int64(result.Rate), money.PPM)
	if err != nil {
		return MarginResult{}, fmt.Errorf("apply margin: %w", err)
	}
	result.Billed = money.Picos(billed)

	if result.Billed < base {
		observability.SuspiciousMarginsTotal.Inc()
		observability.FromContext(ctx).Warn("suspicious margin: billed cost below vendor cost",
			observability.String("margin_kind", string(result.Kind)),
			observability.Stringer("rate", result.Rate),
			observability.Stringer("base_cost", base.Micros()),
			observability.Stringer("billed_cost", result.Billed.Micros()))
	}

	return result, nil
}

func (c *MarginCalculator) resolveDynamic(
	ctx context.Context,
	policy Dynamic,
	mctx MarginContext,
) (money.RatePPM, error) {
	key := newPriceKey(mctx.Vendor, mctx.Model)

	var resolveErr error
	if c.resolver == nil {
		resolveErr = errors.New("no margin resolver configured")
	} else {
		rate, err := c.resolver.ResolveRate(ctx, mctx.Vendor, mctx.Model)
		if err == nil {
			err = validateRate(rate)
		}
		if err == nil {
			c.lastKnown.Store(key, rate)
			return rate, nil
		}
		resolveErr = err
	}

	cause := fmt.Errorf("%w: %s/%s: %w", ErrMarginResolutionFailed, mctx.Vendor, mctx.Model, resolveErr)

	fallback := policy.Fallback.Rate
	source := "policy_fallback"
	if last, ok := c.lastKnown.Load(key); ok {
		fallback = last.(money.RatePPM)
		source = "last_known"
	}

	observability.MarginFallbacksTotal.WithLabelValues(key.vendor).Inc()
	logger := observability.FromContext(ctx)
	if c.failClosed {
		logger.Error("dynamic margin resolution failed, rejecting usage", observability.Error(cause))
	} else {
		logger.Warn("dynamic margin resolution failed, using fixed rate",
			observability.Error(cause),
			observability.Stringer("fallback_rate", fallback),
			observability.String("fallback_source", source))
	}

	return fallback, cause
}
