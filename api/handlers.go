/*
handlers.go - HTTP API handlers for the coin system

PURPOSE:
  Exposes the coin engine via REST. Handles HTTP request/response and JSON
  mapping, then delegates to the engine; no business rule lives here.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                      List accounts
    POST   /api/accounts                      Create account
    GET    /api/accounts/{id}                 Account details
    GET    /api/accounts/{id}/balance         Current balance
    GET    /api/accounts/{id}/statement       Ledger entries, newest first
    POST   /api/accounts/{id}/transfer        Send coins to another account

  Payment links:
    POST   /api/accounts/{id}/payment-link    Create (replaces existing)
    GET    /api/accounts/{id}/payment-link    Read (expired view, not error)
    DELETE /api/accounts/{id}/payment-link    Delete (idempotent)
    POST   /api/payment-links/pay             Pay a link by token

  Redemptions:
    POST   /api/accounts/{id}/redemptions     Redeem a reward
    GET    /api/accounts/{id}/redemptions     List redemptions
    GET    /api/redemptions/{id}              Inspect a redemption
    POST   /api/redemptions/{id}/validate     Consume the code (once)

  Rewards:
    GET/POST /api/rewards                     Catalog list / upsert
    GET      /api/rewards/{id}                Catalog item
    POST     /api/rewards/{id}/deactivate     Stop future redemptions

ERROR HANDLING:
  Engine errors map to stable statuses:
    400 invalid amount / bad input
    403 ownership mismatch
    404 account/link/record/reward absent
    409 insufficient funds, expired link, consumed code, inactive reward
    500 infrastructure failures

SECURITY NOTE:
  Callers are assumed authenticated upstream; the acting identity arrives
  in the request body or path.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/virtus/coin-engine/coin"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       coin.TxStore
	Bank        *coin.Bank
	Links       *coin.LinkManager
	Redemptions *coin.RedemptionEngine
	Ledger      *coin.Ledger
	Clock       coin.Clock
}

// NewHandler wires the engine components over one store.
func NewHandler(store coin.TxStore, clock coin.Clock, notifier coin.Notifier) *Handler {
	tokens := coin.RandomTokenSource{}
	return &Handler{
		Store:       store,
		Bank:        coin.NewBank(store, clock),
		Links:       coin.NewLinkManager(store, clock, tokens),
		Redemptions: coin.NewRedemptionEngine(store, store, clock, tokens, notifier),
		Ledger:      coin.NewLedger(store),
		Clock:       clock,
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.Accounts(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount registers a new balance holder with a zero balance.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	role := coin.Role(req.Role)
	switch role {
	case coin.RoleStudent, coin.RoleTeacher, coin.RolePartner:
	case "":
		role = coin.RoleStudent
	default:
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	a := coin.Account{
		ID:        coin.AccountID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		Role:      role,
		Balance:   0,
		CreatedAt: h.Clock.Now(),
	}
	if err := h.Store.CreateAccount(r.Context(), a); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(a))
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.Account(r.Context(), coin.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(a))
}

// GetBalance returns the current balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := coin.AccountID(chi.URLParam(r, "id"))
	balance, err := h.Bank.Balance(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{AccountID: string(id), Balance: balance})
}

// GetStatement returns the account's ledger entries, newest first.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Ledger.Statement(r.Context(), coin.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Transfer sends coins from the path account to another account.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	from := coin.AccountID(chi.URLParam(r, "id"))
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Bank.Transfer(r.Context(), from, coin.AccountID(req.To), req.Amount, req.Reason); err != nil {
		writeEngineError(w, err)
		return
	}
	balance, err := h.Bank.Balance(r.Context(), from)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{AccountID: string(from), Balance: balance})
}

// =============================================================================
// PAYMENT LINK HANDLERS
// =============================================================================

// CreateLink mints a payment link for the account, replacing any existing
// one.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	owner := coin.AccountID(chi.URLParam(r, "id"))
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	link, err := h.Links.CreateLink(r.Context(), owner, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLinkDTO(coin.LinkView{
		Token:     link.Token,
		Amount:    link.Amount,
		ExpiresAt: link.ExpiresAt,
	}))
}

// ReadLink returns the account's link, or an expired view.
func (h *Handler) ReadLink(w http.ResponseWriter, r *http.Request) {
	view, err := h.Links.ReadLink(r.Context(), coin.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLinkDTO(view))
}

// DeleteLink removes the account's link. Idempotent.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := h.Links.DeleteLink(r.Context(), coin.AccountID(chi.URLParam(r, "id"))); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayLink consumes a link token and credits its owner.
func (h *Handler) PayLink(w http.ResponseWriter, r *http.Request) {
	var req PayLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required", nil)
		return
	}
	entry, err := h.Links.PayLink(r.Context(), coin.AccountID(req.PayerID), req.Token)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerEntryDTO(entry))
}

// =============================================================================
// REDEMPTION HANDLERS
// =============================================================================

// Redeem spends the account's coins on a reward.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	accountID := coin.AccountID(chi.URLParam(r, "id"))
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RewardID == "" {
		writeError(w, http.StatusBadRequest, "reward_id is required", nil)
		return
	}
	rec, err := h.Redemptions.Redeem(r.Context(), accountID, coin.RewardID(req.RewardID))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRedemptionDTO(rec))
}

// ListRedemptions returns the account's redemption records, newest first.
func (h *Handler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	records, err := h.Redemptions.ListRedemptions(r.Context(), coin.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]RedemptionDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRedemptionDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRedemption returns a redemption record without consuming it.
func (h *Handler) GetRedemption(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Redemptions.GetRedemption(r.Context(), coin.RedemptionID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRedemptionDTO(rec))
}

// ValidateRedemption consumes a redemption code exactly once.
func (h *Handler) ValidateRedemption(w http.ResponseWriter, r *http.Request) {
	id := coin.RedemptionID(chi.URLParam(r, "id"))
	var req ValidateRequest
	if r.Body != nil {
		// Body is optional for partner terminals.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	rec, err := h.Redemptions.Validate(r.Context(), id, coin.AccountID(req.CallerID))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRedemptionDTO(rec))
}

// =============================================================================
// REWARD HANDLERS
// =============================================================================

// ListRewards returns the catalog.
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.Store.Rewards(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]RewardDTO, len(rewards))
	for i, rw := range rewards {
		dtos[i] = toRewardDTO(rw)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveReward creates or updates a catalog item.
func (h *Handler) SaveReward(w http.ResponseWriter, r *http.Request) {
	var req SaveRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if req.Cost <= 0 {
		writeError(w, http.StatusBadRequest, "cost must be positive", nil)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	reward := coin.Reward{
		ID:          coin.RewardID(req.ID),
		PartnerID:   coin.AccountID(req.PartnerID),
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		Active:      active,
		CreatedAt:   h.Clock.Now(),
	}
	if err := h.Store.SaveReward(r.Context(), reward); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(reward))
}

// GetReward returns a catalog item.
func (h *Handler) GetReward(w http.ResponseWriter, r *http.Request) {
	reward, err := h.Store.Reward(r.Context(), coin.RewardID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(reward))
}

// DeactivateReward stops future redemptions of a reward. Existing
// redemption records are untouched.
func (h *Handler) DeactivateReward(w http.ResponseWriter, r *http.Request) {
	id := coin.RewardID(chi.URLParam(r, "id"))
	reward, err := h.Store.Reward(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	reward.Active = false
	if err := h.Store.SaveReward(r.Context(), reward); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(reward))
}

// =============================================================================
// HELPERS
// =============================================================================

func toAccountDTO(a coin.Account) AccountDTO {
	return AccountDTO{
		ID:        string(a.ID),
		Name:      a.Name,
		Email:     a.Email,
		Role:      string(a.Role),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps the engine's error taxonomy to stable statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coin.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
	case errors.Is(err, coin.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case coin.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, coin.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "Insufficient funds", err)
	case errors.Is(err, coin.ErrLinkExpired):
		writeError(w, http.StatusConflict, "Payment link expired", err)
	case errors.Is(err, coin.ErrAlreadyConsumed):
		writeError(w, http.StatusConflict, "Redemption already consumed", err)
	case errors.Is(err, coin.ErrRewardUnavailable):
		writeError(w, http.StatusConflict, "Reward unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
