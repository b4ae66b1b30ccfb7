package domain

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/davidbz/creditmeter/internal/money"
)

// UnitPrice is the vendor cost of one model, quoted per million tokens.
type UnitPrice struct {
	Vendor           string       `json:"vendor"`
	Model            string       `json:"model"`
	InputPerMillion  money.Micros `json:"input_cost_per_million"`
	OutputPerMillion money.Micros `json:"output_cost_per_million"`
}

// BaseCost returns the exact vendor cost of the given token counts.
func (p UnitPrice) BaseCost(inputTokens, outputTokens int64) (money.Picos, error) {
	in, err := money.Mul(inputTokens, int64(p.InputPerMillion))
	if err != nil {
		return 0, fmt.Errorf("input cost: %w", err)
	}
	out, err := money.Mul(outputTokens, int64(p.OutputPerMillion))
	if err != nil {
		return 0, fmt.Errorf("output cost: %w", err)
	}
	total, err := money.Add(in, out)
	if err != nil {
		return 0, fmt.Errorf("total cost: %w", err)
	}
	return money.Picos(total), nil
}

func (p UnitPrice) validate() error {
	switch {
	case p.Vendor == "" || p.Model == "":
		return fmt.Errorf("%w: vendor and model are required", ErrInvalidPrice)
	case p.InputPerMillion < 0 || p.OutputPerMillion < 0:
		return fmt.Errorf("%w: %s/%s has a negative cost", ErrInvalidPrice, p.Vendor, p.Model)
	}
	return nil
}

// MarginBook selects the margin policy for a vendor/model. Model entries take
// precedence over vendor entries, which take precedence over the default.
type MarginBook struct {
	Default MarginPolicy
	Vendors map[string]MarginPolicy
	Models  map[string]MarginPolicy
}

// PriceSheet is a complete pricing configuration. The pricing table only ever
// swaps whole sheets.
type PriceSheet struct {
	Version string
	Prices  []UnitPrice
	Margins MarginBook
}

type priceKey struct {
	vendor string
	model  string
}

func newPriceKey(vendor, model string) priceKey {
	return priceKey{
		vendor: strings.ToLower(strings.TrimSpace(vendor)),
		model:  strings.ToLower(strings.TrimSpace(model)),
	}
}

type pricingSnapshot struct {
	version  string
	prices   map[priceKey]UnitPrice
	vendors  map[string]MarginPolicy
	models   map[priceKey]MarginPolicy
	fallback MarginPolicy
	loadedAt time.Time
}

// PricingTable maps (vendor, model) to unit prices. Reads are lock-free; an
// update replaces the whole snapshot with a single atomic store.
type PricingTable struct {
	current atomic.Pointer[pricingSnapshot]
}

// NewPricingTable creates an empty pricing table.
func NewPricingTable() *PricingTable {
	return &PricingTable{}
}

// Swap validates sheet and atomically replaces the visible table.
// On error the previous table stays in place.
func (t *PricingTable) Swap(sheet PriceSheet) error {
	snap := &pricingSnapshot{
		version:  sheet.Version,
		prices:   make(map[priceKey]UnitPrice, len(sheet.Prices)),
		vendors:  make(map[string]MarginPolicy, len(sheet.Margins.Vendors)),
		models:   make(map[priceKey]MarginPolicy, len(sheet.Margins.Models)),
		fallback: sheet.Margins.Default,
		loadedAt: time.Now(),
	}

	for _, price := range sheet.Prices {
		if err := price.validate(); err != nil {
			return err
		}
		key := newPriceKey(price.Vendor, price.Model)
		if _, dup := snap.prices[key]; dup {
			return fmt.Errorf("%w: duplicate price for %s/%s", ErrInvalidPrice, price.Vendor, price.Model)
		}
		snap.prices[key] = price
	}

	if snap.fallback == nil {
		snap.fallback = FixedPercentage{Rate: 0}
	}
	if err := ValidateMargin(snap.fallback); err != nil {
		return fmt.Errorf("default margin: %w", err)
	}
	for vendor, policy := range sheet.Margins.Vendors {
		if err := ValidateMargin(policy); err != nil {
			return fmt.Errorf("margin for vendor %s: %w", vendor, err)
		}
		snap.vendors[newPriceKey(vendor, "").vendor] = policy
	}
	for ref, policy := range sheet.Margins.Models {
		vendor, model, ok := strings.Cut(ref, "/")
		if !ok {
			return fmt.Errorf("%w: model margin key %q must be vendor/model", ErrInvalidMargin, ref)
		}
		if err := ValidateMargin(policy); err != nil {
			return fmt.Errorf("margin for model %s: %w", ref, err)
		}
		snap.models[newPriceKey(vendor, model)] = policy
	}

	t.current.Store(snap)
	return nil
}

// Lookup returns the unit price for vendor/model or ErrPriceNotFound.
func (t *PricingTable) Lookup(vendor, model string) (UnitPrice, error) {
	snap := t.current.Load()
	if snap == nil {
		return UnitPrice{}, fmt.Errorf("%w: %s/%s (pricing table empty)", ErrPriceNotFound, vendor, model)
	}

	price, ok := snap.prices[newPriceKey(vendor, model)]
	if !ok {
		return UnitPrice{}, fmt.Errorf("%w: %s/%s", ErrPriceNotFound, vendor, model)
	}
	return price, nil
}

// MarginFor returns the margin policy that applies to vendor/model.
func (t *PricingTable) MarginFor(vendor, model string) MarginPolicy {
	snap := t.current.Load()
	if snap == nil {
		return FixedPercentage{Rate: 0}
	}

	key := newPriceKey(vendor, model)
	if policy, ok := snap.models[key]; ok {
		return policy
	}
	if policy, ok := snap.vendors[key.vendor]; ok {
		return policy
	}
	return snap.fallback
}

// Version returns the version label of the visible sheet.
func (t *PricingTable) Version() string {
	if snap := t.current.Load(); snap != nil {
		return snap.version
	}
	return ""
}

// Size returns the number of priced models in the visible sheet.
func (t *PricingTable) Size() int {
	if snap := t.current.Load(); snap != nil {
		return len(snap.prices)
	}
	return 0
}
