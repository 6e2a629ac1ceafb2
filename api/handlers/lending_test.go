package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openalpha/lending-core/api/types"
	lendingtypes "github.com/openalpha/lending-core/x/lending/types"
)

// stubService returns canned responses and records the last request.
type stubService struct {
	lastLending *types.LendingRequest
	lendingErr  error
	bank        *types.BankInfo
}

func (s *stubService) CreateBank(ctx context.Context, req *types.CreateBankRequest) (*types.BankInfo, error) {
	return s.bank, nil
}

func (s *stubService) GetBank(ctx context.Context, denom string) (*types.BankInfo, error) {
	if s.bank == nil || s.bank.Denom != denom {
		return nil, lendingtypes.ErrBankNotFound
	}
	return s.bank, nil
}

func (s *stubService) ListBanks(ctx context.Context) (*types.ListBanksResponse, error) {
	if s.bank == nil {
		return &types.ListBanksResponse{Banks: []*types.BankInfo{}}, nil
	}
	return &types.ListBanksResponse{Banks: []*types.BankInfo{s.bank}, Total: 1}, nil
}

func (s *stubService) OpenBalance(ctx context.Context, req *types.OpenBalanceRequest) (*types.BalanceInfo, error) {
	return &types.BalanceInfo{Owner: req.Owner, Denom: req.Denom}, nil
}

func (s *stubService) GetBalance(ctx context.Context, owner, denom string) (*types.BalanceInfo, error) {
	return &types.BalanceInfo{Owner: owner, Denom: denom}, nil
}

func (s *stubService) GetPosition(ctx context.Context, owner string) (*types.PositionInfo, error) {
	return &types.PositionInfo{Owner: owner}, nil
}

func (s *stubService) lending(req *types.LendingRequest) (*types.LendingResponse, error) {
	s.lastLending = req
	if s.lendingErr != nil {
		return nil, s.lendingErr
	}
	return &types.LendingResponse{ReceiptID: "r-1"}, nil
}

func (s *stubService) Deposit(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lending(req)
}

func (s *stubService) Borrow(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lending(req)
}

func (s *stubService) Repay(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lending(req)
}

func (s *stubService) Withdraw(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lending(req)
}

func (s *stubService) PushQuote(ctx context.Context, req *types.PushQuoteRequest) (*types.QuoteInfo, error) {
	return &types.QuoteInfo{FeedID: req.FeedID, Price: req.Price}, nil
}

func (s *stubService) GetQuote(ctx context.Context, feedID string) (*types.QuoteInfo, error) {
	return nil, lendingtypes.ErrStalePrice
}

func (s *stubService) Fund(ctx context.Context, req *types.FundRequest) error {
	return nil
}

func TestHandleDeposit(t *testing.T) {
	svc := &stubService{}
	h := NewLendingHandler(svc)

	body := `{"account":"alice","denom":"usdc","amount":"100"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/lending/deposit", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleDeposit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastLending == nil || svc.lastLending.Amount != "100" {
		t.Errorf("expected request forwarded with amount 100, got %+v", svc.lastLending)
	}

	var resp types.LendingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ReceiptID != "r-1" {
		t.Errorf("expected receipt r-1, got %s", resp.ReceiptID)
	}
}

func TestHandleDepositValidation(t *testing.T) {
	h := NewLendingHandler(&stubService{})

	testCases := []struct {
		name string
		body string
	}{
		{"missing account", `{"denom":"usdc","amount":"100"}`},
		{"missing denom", `{"account":"alice","amount":"100"}`},
		{"missing amount", `{"account":"alice","denom":"usdc"}`},
		{"bad json", `{`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/lending/deposit", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.HandleDeposit(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestHandleDepositMethodNotAllowed(t *testing.T) {
	h := NewLendingHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/lending/deposit", nil)
	w := httptest.NewRecorder()
	h.HandleDeposit(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bank missing", lendingtypes.ErrBankNotFound, http.StatusNotFound},
		{"over borrow", lendingtypes.ErrOverBorrowableAmount, http.StatusBadRequest},
		{"stale quote", lendingtypes.ErrStalePrice, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewLendingHandler(&stubService{lendingErr: tc.err})
			body := `{"account":"alice","denom":"usdc","amount":"100"}`
			req := httptest.NewRequest(http.MethodPost, "/v1/lending/borrow", strings.NewReader(body))
			w := httptest.NewRecorder()
			h.HandleBorrow(w, req)
			if w.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}

func TestHandleBankNotFound(t *testing.T) {
	h := NewLendingHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/lending/banks/usdc", nil)
	w := httptest.NewRecorder()
	h.HandleBank(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
