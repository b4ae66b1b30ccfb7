package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/davidbz/creditmeter/internal/money"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	// EntryKindUsageDeduction is a metered API usage charge.
	EntryKindUsageDeduction EntryKind = "usage_deduction"

	// EntryKindProrationCharge is a mid-cycle upgrade charge.
	EntryKindProrationCharge EntryKind = "proration_charge"

	// EntryKindProrationRefund is a mid-cycle downgrade or cancellation refund.
	EntryKindProrationRefund EntryKind = "proration_refund"

	// EntryKindManualAdjustment is an administrative correction or top-up.
	EntryKindManualAdjustment EntryKind = "manual_adjustment"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryKindUsageDeduction, EntryKindProrationCharge, EntryKindProrationRefund, EntryKindManualAdjustment:
		return true
	default:
		return false
	}
}

// UsageEvent is one metered call to a vendor API.
type UsageEvent struct {
	UserID       string    `json:"user_id"`
	Vendor       string    `json:"vendor"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// HasUsage reports whether any tokens were consumed.
func (e UsageEvent) HasUsage() bool {
	return e.InputTokens > 0 || e.OutputTokens > 0
}

// TotalTokens returns input plus output tokens.
func (e UsageEvent) TotalTokens() int64 {
	return e.InputTokens + e.OutputTokens
}

// Validate checks the event shape before pricing.
func (e UsageEvent) Validate() error {
	switch {
	case e.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidUsage)
	case e.Vendor == "":
		return fmt.Errorf("%w: vendor is required", ErrInvalidUsage)
	case e.Model == "":
		return fmt.Errorf("%w: model is required", ErrInvalidUsage)
	case e.InputTokens < 0 || e.OutputTokens < 0:
		return fmt.Errorf("%w: token counts cannot be negative", ErrInvalidUsage)
	}
	return nil
}

// LedgerEntry is an immutable record of one balance-affecting event.
// Corrections are new entries; stores never update an existing row.
type LedgerEntry struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	DeltaCredits  money.Centi   `json:"delta_credits"`
	Kind          EntryKind     `json:"kind"`
	SourceCostUSD *money.Micros `json:"source_cost_usd,omitempty"`
	VendorCostUSD *money.Micros `json:"vendor_cost_usd,omitempty"`
	Increment     Increment     `json:"increment"`
	Vendor        string        `json:"vendor,omitempty"`
	Model         string        `json:"model,omitempty"`
	InputTokens   int64         `json:"input_tokens,omitempty"`
	OutputTokens  int64         `json:"output_tokens,omitempty"`
	Reference     string        `json:"reference,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Balance is the running sum of a user's ledger deltas.
type Balance struct {
	UserID    string      `json:"user_id"`
	Credits   money.Centi `json:"credits"`
	Entries   int64       `json:"entries"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Reconciliation compares the stored balance projection with the ledger sum.
type Reconciliation struct {
	UserID     string      `json:"user_id"`
	Stored     money.Centi `json:"stored"`
	LedgerSum  money.Centi `json:"ledger_sum"`
	Entries    int64       `json:"entries"`
	Consistent bool        `json:"consistent"`
}

// Scopes granted by the identity provider that the billing core understands.
const (
	ScopeBillingWrite = "billing:write"
	ScopeBillingRead  = "billing:read"
	ScopeBillingAdmin = "billing:admin"
)

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	UserID string   `json:"user_id"`
	Scopes []string `json:"scopes"`
}

// HasScope reports whether the principal was granted scope. The admin scope
// implies every other billing scope.
func (p Principal) HasScope(scope string) bool {
	if slices.Contains(p.Scopes, ScopeBillingAdmin) {
		return true
	}
	return slices.Contains(p.Scopes, scope)
}

// ParseScopes splits a space or comma separated scope list.
func ParseScopes(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ','
	})
}

// Require returns ErrForbidden unless the principal holds scope.
func (p Principal) Require(scope string) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: unauthenticated principal", ErrForbidden)
	}
	if !p.HasScope(scope) {
		return fmt.Errorf("%w: %q requires scope %s", ErrForbidden, p.UserID, scope)
	}
	return nil
}

// CanRead reports whether the principal may read userID's balance and ledger.
func (p Principal) CanRead(userID string) bool {
	if p.HasScope(ScopeBillingAdmin) {
		return true
	}
	return p.UserID == userID && p.HasScope(ScopeBillingRead)
}
