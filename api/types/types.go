package types

import (
	"context"
)

// BankInfo represents a lending pool in the API response
type BankInfo struct {
	Denom                string `json:"denom"`
	Decimals             uint32 `json:"decimals"`
	TotalDeposits        string `json:"total_deposits"`
	TotalDepositShares   string `json:"total_deposit_shares"`
	TotalBorrowed        string `json:"total_borrowed"`
	TotalBorrowedShares  string `json:"total_borrowed_shares"`
	LiquidationThreshold string `json:"liquidation_threshold"`
	MaxLTV               string `json:"max_ltv"`
	InterestRate         string `json:"interest_rate"`
	PriceFeedID          string `json:"price_feed_id"`
	LastUpdated          int64  `json:"last_updated"`
}

// BalanceInfo represents a per-asset user balance in the API response
type BalanceInfo struct {
	Owner          string `json:"owner"`
	Denom          string `json:"denom"`
	Name           string `json:"name"`
	DepositAmount  string `json:"deposit_amount"`
	DepositShares  string `json:"deposit_shares"`
	BorrowedAmount string `json:"borrowed_amount"`
	BorrowedShares string `json:"borrowed_shares"`
	LastUpdate     int64  `json:"last_update"`
}

// PositionInfo represents the cross-asset user position in the API response
type PositionInfo struct {
	Owner             string `json:"owner"`
	TotalDepositValue string `json:"total_deposit_value"`
	TotalBorrowValue  string `json:"total_borrow_value"`
}

// QuoteInfo represents an oracle quote in the API response
type QuoteInfo struct {
	FeedID      string  `json:"feed_id"`
	Price       int64   `json:"price"`
	Exponent    int32   `json:"exponent"`
	UnitPrice   float64 `json:"unit_price"`
	PublishTime int64   `json:"publish_time"`
}

// CreateBankRequest represents the request to create a lending pool
type CreateBankRequest struct {
	Denom                string `json:"denom"`
	Decimals             uint32 `json:"decimals"`
	LiquidationThreshold string `json:"liquidation_threshold"`
	MaxLTV               string `json:"max_ltv"`
	PriceFeedID          string `json:"price_feed_id"`
}

// OpenBalanceRequest represents the request to open a per-asset balance
type OpenBalanceRequest struct {
	Owner string `json:"owner"`
	Denom string `json:"denom"`
	Name  string `json:"name"`
}

// LendingRequest is the shared request shape for the four lending
// operations: an account, an asset, and an unscaled amount.
type LendingRequest struct {
	Account string `json:"account"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// LendingResponse is the shared response shape for the four lending
// operations
type LendingResponse struct {
	ReceiptID string        `json:"receipt_id,omitempty"`
	Balance   *BalanceInfo  `json:"balance"`
	Position  *PositionInfo `json:"position"`
	Bank      *BankInfo     `json:"bank"`
}

// PushQuoteRequest represents the request to publish an oracle quote
type PushQuoteRequest struct {
	FeedID      string `json:"feed_id"`
	Price       int64  `json:"price"`
	Exponent    int32  `json:"exponent"`
	PublishTime int64  `json:"publish_time,omitempty"`
}

// FundRequest represents the request to credit a custody account, used
// to seed balances in standalone mode
type FundRequest struct {
	Account string `json:"account"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// ListBanksResponse represents the response for listing pools
type ListBanksResponse struct {
	Banks []*BankInfo `json:"banks"`
	Total int         `json:"total"`
}

// LendingService is the interface the HTTP handlers are written against
type LendingService interface {
	CreateBank(ctx context.Context, req *CreateBankRequest) (*BankInfo, error)
	GetBank(ctx context.Context, denom string) (*BankInfo, error)
	ListBanks(ctx context.Context) (*ListBanksResponse, error)

	OpenBalance(ctx context.Context, req *OpenBalanceRequest) (*BalanceInfo, error)
	GetBalance(ctx context.Context, owner, denom string) (*BalanceInfo, error)
	GetPosition(ctx context.Context, owner string) (*PositionInfo, error)

	Deposit(ctx context.Context, req *LendingRequest) (*LendingResponse, error)
	Borrow(ctx context.Context, req *LendingRequest) (*LendingResponse, error)
	Repay(ctx context.Context, req *LendingRequest) (*LendingResponse, error)
	Withdraw(ctx context.Context, req *LendingRequest) (*LendingResponse, error)

	PushQuote(ctx context.Context, req *PushQuoteRequest) (*QuoteInfo, error)
	GetQuote(ctx context.Context, feedID string) (*QuoteInfo, error)

	Fund(ctx context.Context, req *FundRequest) error
}
