package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openalpha/lending-core/api/types"
	lendingtypes "github.com/openalpha/lending-core/x/lending/types"
)

// LendingHandler handles lending-related HTTP requests
type LendingHandler struct {
	service types.LendingService
}

// NewLendingHandler creates a new lending handler
func NewLendingHandler(service types.LendingService) *LendingHandler {
	return &LendingHandler{service: service}
}

// HandleBanks handles /v1/lending/banks (GET list, POST create)
func (h *LendingHandler) HandleBanks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := h.service.ListBanks(r.Context())
		if err != nil {
			writeServiceError(w, "list_banks_failed", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)

	case http.MethodPost:
		var req types.CreateBankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
			return
		}
		if req.Denom == "" {
			writeError(w, http.StatusBadRequest, "missing_denom", "denom is required")
			return
		}
		bank, err := h.service.CreateBank(r.Context(), &req)
		if err != nil {
			writeServiceError(w, "create_bank_failed", err)
			return
		}
		writeJSON(w, http.StatusCreated, bank)

	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandleBank handles GET /v1/lending/banks/{denom}
func (h *LendingHandler) HandleBank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	denom := r.URL.Path[len("/v1/lending/banks/"):]
	if denom == "" {
		writeError(w, http.StatusBadRequest, "missing_denom", "denom is required")
		return
	}

	bank, err := h.service.GetBank(r.Context(), denom)
	if err != nil {
		writeServiceError(w, "get_bank_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// HandleBalances handles /v1/lending/balances (GET by owner+denom, POST open)
func (h *LendingHandler) HandleBalances(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		owner := r.URL.Query().Get("owner")
		denom := r.URL.Query().Get("denom")
		if owner == "" || denom == "" {
			writeError(w, http.StatusBadRequest, "missing_params", "owner and denom are required")
			return
		}
		balance, err := h.service.GetBalance(r.Context(), owner, denom)
		if err != nil {
			writeServiceError(w, "get_balance_failed", err)
			return
		}
		writeJSON(w, http.StatusOK, balance)

	case http.MethodPost:
		var req types.OpenBalanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
			return
		}
		if req.Owner == "" || req.Denom == "" {
			writeError(w, http.StatusBadRequest, "missing_params", "owner and denom are required")
			return
		}
		balance, err := h.service.OpenBalance(r.Context(), &req)
		if err != nil {
			writeServiceError(w, "open_balance_failed", err)
			return
		}
		writeJSON(w, http.StatusCreated, balance)

	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandlePosition handles GET /v1/lending/positions/{owner}
func (h *LendingHandler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	owner := r.URL.Path[len("/v1/lending/positions/"):]
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing_owner", "owner is required")
		return
	}

	position, err := h.service.GetPosition(r.Context(), owner)
	if err != nil {
		writeServiceError(w, "get_position_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

// HandleDeposit handles POST /v1/lending/deposit
func (h *LendingHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.lendingOp(w, r, "deposit_failed", h.service.Deposit)
}

// HandleBorrow handles POST /v1/lending/borrow
func (h *LendingHandler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	h.lendingOp(w, r, "borrow_failed", h.service.Borrow)
}

// HandleRepay handles POST /v1/lending/repay
func (h *LendingHandler) HandleRepay(w http.ResponseWriter, r *http.Request) {
	h.lendingOp(w, r, "repay_failed", h.service.Repay)
}

// HandleWithdraw handles POST /v1/lending/withdraw
func (h *LendingHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.lendingOp(w, r, "withdraw_failed", h.service.Withdraw)
}

// lendingOp is the shared POST flow for the four lending operations.
func (h *LendingHandler) lendingOp(w http.ResponseWriter, r *http.Request, failCode string, op func(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error)) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.LendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Account == "" {
		req.Account = r.Header.Get("X-Account-Address")
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "missing_account", "account address is required")
		return
	}
	if req.Denom == "" {
		writeError(w, http.StatusBadRequest, "missing_denom", "denom is required")
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount is required")
		return
	}

	resp, err := op(r.Context(), &req)
	if err != nil {
		writeServiceError(w, failCode, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleQuotes handles /v1/lending/quotes (GET by feed, POST publish)
func (h *LendingHandler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		feedID := r.URL.Query().Get("feed_id")
		if feedID == "" {
			writeError(w, http.StatusBadRequest, "missing_feed_id", "feed_id is required")
			return
		}
		quote, err := h.service.GetQuote(r.Context(), feedID)
		if err != nil {
			writeServiceError(w, "get_quote_failed", err)
			return
		}
		writeJSON(w, http.StatusOK, quote)

	case http.MethodPost:
		var req types.PushQuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
			return
		}
		if req.FeedID == "" {
			writeError(w, http.StatusBadRequest, "missing_feed_id", "feed_id is required")
			return
		}
		quote, err := h.service.PushQuote(r.Context(), &req)
		if err != nil {
			writeServiceError(w, "push_quote_failed", err)
			return
		}
		writeJSON(w, http.StatusOK, quote)

	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandleFund handles POST /v1/lending/fund
func (h *LendingHandler) HandleFund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.FundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Account == "" || req.Denom == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_params", "account, denom and amount are required")
		return
	}
	if err := h.service.Fund(r.Context(), &req); err != nil {
		writeServiceError(w, "fund_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"funded": true})
}

// writeServiceError maps lending error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, code string, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, lendingtypes.ErrBankNotFound),
		errors.Is(err, lendingtypes.ErrUserPositionNotFound),
		errors.Is(err, lendingtypes.ErrUserBalanceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lendingtypes.ErrBankExists),
		errors.Is(err, lendingtypes.ErrUserBalanceExists):
		status = http.StatusConflict
	case errors.Is(err, lendingtypes.ErrStalePrice):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
