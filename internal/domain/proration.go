package domain

import (
	"fmt"

	"github.com/davidbz/creditmeter/internal/money"
)

// ProrationRequest describes a mid-cycle plan change. UserID is the
// subscription owner whose balance receives the adjustment.
type ProrationRequest struct {
	SubscriptionID  string       `json:"subscription_id"`
	UserID          string       `json:"user_id"`
	OldPrice        money.Micros `json:"old_price"`
	NewPrice        money.Micros `json:"new_price"`
	DaysRemaining   int          `json:"days_remaining"`
	CycleLengthDays int          `json:"cycle_length_days"`
}

// Validate checks identifiers; price and window checks happen in ComputeProration.
func (r ProrationRequest) Validate() error {
	if r.SubscriptionID == "" {
		return fmt.Errorf("%w: subscription id is required", ErrInvalidEntry)
	}
	if r.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	return nil
}

// ComputeProration returns the signed amount owed for the rest of the cycle:
// positive is a charge, negative a refund. The result is rounded to cents and
// a refund never exceeds the unused share of oldPrice.
func ComputeProration(oldPrice, newPrice money.Micros, daysRemaining, cycleLengthDays int) (money.Micros, error) {
	if cycleLengthDays <= 0 {
		return 0, fmt.Errorf("%w: cycle length must be positive, got %d", ErrInvalidProrationWindow, cycleLengthDays)
	}
	if daysRemaining < 0 || daysRemaining > cycleLengthDays {
		return 0, fmt.Errorf("%w: days remaining %d outside [0, %d]",
			ErrInvalidProrationWindow, daysRemaining, cycleLengthDays)
	}
	if oldPrice < 0 || newPrice < 0 {
		return 0, fmt.Errorf("%w: plan prices cannot be negative", ErrInvalidPrice)
	}

	centsDen := int64(cycleLengthDays) * money.MicrosPerCent

	cents, err := money.MulDivRound(int64(newPrice-oldPrice), int64(daysRemaining), centsDen)
	if err != nil {
		return 0, fmt.Errorf("proration amount: %w", err)
	}
	unusedCents, err := money.MulDivRound(int64(oldPrice), int64(daysRemaining), centsDen)
	if err != nil {
		return 0, fmt.Errorf("unused amount: %w", err)
	}

	if cents < -unusedCents {
		cents = -unusedCents
	}
	return money.Micros(cents * money.MicrosPerCent), nil
}

// ProrationKind classifies a computed proration amount.
func ProrationKind(amount money.Micros) EntryKind {
	if amount < 0 {
		return EntryKindProrationRefund
	}
	return EntryKindProrationCharge
}
