/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP boundary. These decouple the domain model
  from the wire contract; validation happens in handlers, DTOs are pure
  data carriers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/virtus/coin-engine/coin"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateAccountRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type BalanceDTO struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// =============================================================================
// LEDGER
// =============================================================================

type LedgerEntryDTO struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	Delta        int64  `json:"delta"`
	Reason       string `json:"reason"`
	Note         string `json:"note,omitempty"`
	CorrelatedID string `json:"correlated_id,omitempty"`
	At           string `json:"at"`
}

func toLedgerEntryDTO(e coin.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:           string(e.ID),
		AccountID:    string(e.AccountID),
		Delta:        e.Delta,
		Reason:       string(e.Reason),
		Note:         e.Note,
		CorrelatedID: e.Correlate,
		At:           e.At.Format(time.RFC3339),
	}
}

// =============================================================================
// PAYMENT LINKS
// =============================================================================

type CreateLinkRequest struct {
	// Amount is a decimal string ("50", "12.5"). The integer part is what
	// gets credited when the link is paid.
	Amount string `json:"amount"`
}

type LinkDTO struct {
	Token     string `json:"token,omitempty"`
	Amount    string `json:"amount,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Expired   bool   `json:"expired"`
}

func toLinkDTO(v coin.LinkView) LinkDTO {
	dto := LinkDTO{Expired: v.Expired}
	if !v.ExpiresAt.IsZero() {
		dto.ExpiresAt = v.ExpiresAt.Format(time.RFC3339)
	}
	if !v.Expired {
		dto.Token = v.Token
		dto.Amount = v.Amount.String()
	}
	return dto
}

type PayLinkRequest struct {
	PayerID string `json:"payer_id"`
	Token   string `json:"token"`
}

// =============================================================================
// REWARDS & REDEMPTIONS
// =============================================================================

type RewardDTO struct {
	ID          string `json:"id"`
	PartnerID   string `json:"partner_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Cost        int64  `json:"cost"`
	Active      bool   `json:"active"`
}

type SaveRewardRequest struct {
	ID          string `json:"id"`
	PartnerID   string `json:"partner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Active      *bool  `json:"active,omitempty"`
}

func toRewardDTO(r coin.Reward) RewardDTO {
	return RewardDTO{
		ID:          string(r.ID),
		PartnerID:   string(r.PartnerID),
		Name:        r.Name,
		Description: r.Description,
		Cost:        r.Cost,
		Active:      r.Active,
	}
}

type RedeemRequest struct {
	RewardID string `json:"reward_id"`
}

type ValidateRequest struct {
	// CallerID, when set, enforces that the redemption belongs to the
	// caller. Partner terminals leave it empty.
	CallerID string `json:"caller_id,omitempty"`
}

type RedemptionDTO struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	RewardID   string `json:"reward_id"`
	RewardName string `json:"reward_name"`
	CoinsSpent int64  `json:"coins_spent"`
	Code       string `json:"code"`
	Consumed   bool   `json:"consumed"`
	CreatedAt  string `json:"created_at"`
}

func toRedemptionDTO(rec coin.RedemptionRecord) RedemptionDTO {
	return RedemptionDTO{
		ID:         string(rec.ID),
		AccountID:  string(rec.AccountID),
		RewardID:   string(rec.RewardID),
		RewardName: rec.RewardName,
		CoinsSpent: rec.CoinsSpent,
		Code:       rec.Code,
		Consumed:   rec.Consumed,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
