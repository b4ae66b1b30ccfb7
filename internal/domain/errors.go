package domain

import (
	"errors"

	"github.com/davidbz/creditmeter/internal/money"
)

var (
	// ErrPriceNotFound indicates an unconfigured vendor/model pair.
	ErrPriceNotFound = errors.New("price not found")

	// ErrInvalidIncrement indicates a rounding increment outside the allowed set.
	ErrInvalidIncrement = errors.New("invalid rounding increment")

	// ErrCacheUninitialized indicates the rounding policy was read before startup loaded it.
	ErrCacheUninitialized = errors.New("rounding policy cache uninitialized")

	// ErrMarginResolutionFailed indicates the dynamic margin resolver could not produce a rate.
	ErrMarginResolutionFailed = errors.New("margin resolution failed")

	// ErrInvalidProrationWindow indicates days remaining outside [0, cycle length].
	ErrInvalidProrationWindow = errors.New("invalid proration window")

	// ErrLedgerWriteConflict indicates transient storage contention on append.
	ErrLedgerWriteConflict = errors.New("ledger write conflict")

	// ErrInvalidUsage indicates a malformed usage event.
	ErrInvalidUsage = errors.New("invalid usage event")

	// ErrInvalidPrice indicates a malformed or negative price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidMargin indicates a malformed margin policy.
	ErrInvalidMargin = errors.New("invalid margin policy")

	// ErrInvalidEntry indicates a ledger entry that must not be written.
	ErrInvalidEntry = errors.New("invalid ledger entry")

	// ErrPolicyNotFound indicates no rounding policy has been persisted yet.
	ErrPolicyNotFound = errors.New("rounding policy not found")

	// ErrForbidden indicates the principal lacks the required scope.
	ErrForbidden = errors.New("forbidden")

	// ErrCacheMiss indicates no cached balance was found.
	ErrCacheMiss = errors.New("cache miss")

	// ErrAmountOverflow indicates a currency computation left the int64 range.
	ErrAmountOverflow = money.ErrOverflow
)
