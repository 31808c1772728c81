/*
token.go - Opaque token and code generation

PURPOSE:
  Supplies the unguessable strings the engine depends on: payment-link
  tokens and single-use redemption codes. Collision probability must be
  negligible; the store backs this with unique indexes and treats a
  collision as a fatal invariant violation, not a retryable condition.

SEE ALSO:
  - link.go: Consumes LinkToken
  - redemption.go: Consumes RedemptionCode
*/
package coin

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// TokenSource supplies unguessable unique strings.
type TokenSource interface {
	// LinkToken returns a fresh payment-link token.
	LinkToken() (string, error)

	// RedemptionCode returns a fresh single-use redemption code.
	RedemptionCode() (string, error)
}

// RandomTokenSource is the default TokenSource: 192-bit random link tokens
// and UUID redemption codes.
type RandomTokenSource struct{}

func (RandomTokenSource) LinkToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", internalError(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (RandomTokenSource) RedemptionCode() (string, error) {
	return uuid.NewString(), nil
}

// NewEntryID returns a fresh ledger-entry ID.
func NewEntryID() EntryID { return EntryID(uuid.NewString()) }

// NewRedemptionID returns a fresh redemption-record ID.
func NewRedemptionID() RedemptionID { return RedemptionID(uuid.NewString()) }
