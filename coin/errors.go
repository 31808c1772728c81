/*
errors.go - Centralized error taxonomy for the coin engine

PURPOSE:
  All business-rule errors in one place. Every failure a caller can act on
  is a distinct sentinel; only true infrastructure failures surface as
  ErrInternal.

ERROR CATEGORIES:
  1. Amount errors     - InvalidAmount, InsufficientFunds
  2. Lookup errors     - NotFound, LinkNotFound
  3. Lifecycle errors  - LinkExpired, AlreadyConsumed, RewardUnavailable
  4. Authorization     - Forbidden (ownership mismatch)
  5. Infrastructure    - Internal (store failure, token collision)

USAGE:
  The boundary layer matches with errors.Is and maps each kind to a stable
  outward signal:

    if errors.Is(err, coin.ErrInsufficientFunds) { ... 409 ... }

  Structured variants carry context and unwrap to the sentinel:

    var ife *coin.InsufficientFundsError
    if errors.As(err, &ife) { log(ife.Available, ife.Requested) }

SEE ALSO:
  - bank.go, link.go, redemption.go: Producers of these errors
  - api/handlers.go: HTTP status mapping
*/
package coin

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when an amount is negative or zero where a
	// positive value is required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when a debit would drive the balance
	// negative. The balance is left untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound is returned when an account, reward, or redemption record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLinkNotFound is returned when no account currently holds the
	// presented payment-link token. This includes the lost side of a race:
	// the winning payer clears the token before the loser resolves it.
	ErrLinkNotFound = errors.New("payment link not found")

	// ErrLinkExpired is returned when a payment link is past its expiry.
	ErrLinkExpired = errors.New("payment link expired")

	// ErrAlreadyConsumed is returned when a redemption code is validated a
	// second time. The consumed flag never reverses.
	ErrAlreadyConsumed = errors.New("redemption already consumed")

	// ErrRewardUnavailable is returned when the reward exists but is inactive.
	ErrRewardUnavailable = errors.New("reward unavailable")

	// ErrForbidden is returned when a caller acts on a record they don't own.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal wraps infrastructure failures (store unavailable, token
	// collision). Never returned for business-rule violations.
	ErrInternal = errors.New("internal error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError reports how short the balance was.
type InsufficientFundsError struct {
	AccountID AccountID
	Available int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: account %s has %d, needs %d",
		e.AccountID, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// ForbiddenError reports an ownership mismatch on a redemption record.
type ForbiddenError struct {
	RedemptionID RedemptionID
	OwnerID      AccountID
	CallerID     AccountID
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("redemption %s belongs to %s, not %s",
		e.RedemptionID, e.OwnerID, e.CallerID)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// internalError wraps an infrastructure failure with its cause attached.
func internalError(cause error) error {
	return fmt.Errorf("%w: %v", ErrInternal, cause)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is a recoverable, caller-facing
// business condition rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrLinkExpired) ||
		errors.Is(err, ErrAlreadyConsumed) ||
		errors.Is(err, ErrRewardUnavailable) ||
		errors.Is(err, ErrForbidden) ||
		IsNotFound(err)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrLinkNotFound)
}
