package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// MsgServer defines the lending MsgServer. Each handler runs its operation
// on a branched cache context and writes back only on success, so a failed
// operation leaves no partial state behind.
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// parseAmount parses the unscaled token amount carried by a message.
func parseAmount(s string) (math.Int, error) {
	amount, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("invalid amount: %s", s)
	}
	if !amount.IsPositive() {
		return math.Int{}, fmt.Errorf("amount must be positive: %s", s)
	}
	return amount, nil
}

// InitBank handles MsgInitBank
func (m *MsgServer) InitBank(ctx context.Context, msg *types.MsgInitBank) (*types.MsgInitBankResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	threshold, ok := math.NewIntFromString(msg.LiquidationThreshold)
	if !ok {
		return nil, fmt.Errorf("invalid liquidation threshold: %s", msg.LiquidationThreshold)
	}
	maxLTV, ok := math.NewIntFromString(msg.MaxLTV)
	if !ok {
		return nil, fmt.Errorf("invalid max LTV: %s", msg.MaxLTV)
	}

	cacheCtx, write := sdkCtx.CacheContext()
	bank, err := m.keeper.InitBank(cacheCtx, msg.Authority, msg.Denom, msg.Decimals, threshold, maxLTV, msg.PriceFeedID)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgInitBankResponse{
		Denom:        bank.Denom,
		InterestRate: bank.InterestRate.String(),
	}, nil
}

// InitUserTokenBalance handles MsgInitUserTokenBalance
func (m *MsgServer) InitUserTokenBalance(ctx context.Context, msg *types.MsgInitUserTokenBalance) (*types.MsgInitUserTokenBalanceResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	cacheCtx, write := sdkCtx.CacheContext()
	balance, err := m.keeper.InitUserTokenBalance(cacheCtx, msg.Owner, msg.Denom, msg.Name)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgInitUserTokenBalanceResponse{
		Owner: balance.Owner,
		Denom: balance.Denom,
	}, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	if err := m.keeper.Deposit(cacheCtx, msg.Depositor, msg.Denom, amount); err != nil {
		return nil, err
	}
	write()

	balance := m.keeper.GetUserTokenBalance(sdkCtx, msg.Depositor, msg.Denom)
	position := m.keeper.GetUserPosition(sdkCtx, msg.Depositor)
	scaled, _ := types.ScaleAmount(amount)

	return &types.MsgDepositResponse{
		ScaledAmount:      scaled.String(),
		DepositShares:     balance.DepositShares.String(),
		TotalDepositValue: position.TotalDepositValue.String(),
	}, nil
}

// Borrow handles MsgBorrow
func (m *MsgServer) Borrow(ctx context.Context, msg *types.MsgBorrow) (*types.MsgBorrowResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	if err := m.keeper.Borrow(cacheCtx, msg.Borrower, msg.Denom, amount); err != nil {
		return nil, err
	}
	write()

	balance := m.keeper.GetUserTokenBalance(sdkCtx, msg.Borrower, msg.Denom)
	position := m.keeper.GetUserPosition(sdkCtx, msg.Borrower)
	scaled, _ := types.ScaleAmount(amount)

	return &types.MsgBorrowResponse{
		ScaledAmount:     scaled.String(),
		BorrowedShares:   balance.BorrowedShares.String(),
		TotalBorrowValue: position.TotalBorrowValue.String(),
	}, nil
}

// Repay handles MsgRepay
func (m *MsgServer) Repay(ctx context.Context, msg *types.MsgRepay) (*types.MsgRepayResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	if err := m.keeper.Repay(cacheCtx, msg.Borrower, msg.Denom, amount); err != nil {
		return nil, err
	}
	write()

	balance := m.keeper.GetUserTokenBalance(sdkCtx, msg.Borrower, msg.Denom)
	position := m.keeper.GetUserPosition(sdkCtx, msg.Borrower)
	bank := m.keeper.GetBank(sdkCtx, msg.Denom)
	price, err := m.keeper.GetPriceNoOlderThan(sdkCtx, bank.PriceFeedID, types.MaxQuoteAge)
	if err != nil {
		return nil, err
	}

	return &types.MsgRepayResponse{
		RepayValue:       types.RoundedValueOf(price, amount).String(),
		BorrowedAmount:   balance.BorrowedAmount.String(),
		TotalBorrowValue: position.TotalBorrowValue.String(),
	}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	if err := m.keeper.Withdraw(cacheCtx, msg.Withdrawer, msg.Denom, amount); err != nil {
		return nil, err
	}
	write()

	balance := m.keeper.GetUserTokenBalance(sdkCtx, msg.Withdrawer, msg.Denom)
	position := m.keeper.GetUserPosition(sdkCtx, msg.Withdrawer)
	bank := m.keeper.GetBank(sdkCtx, msg.Denom)
	price, err := m.keeper.GetPriceNoOlderThan(sdkCtx, bank.PriceFeedID, types.MaxQuoteAge)
	if err != nil {
		return nil, err
	}

	return &types.MsgWithdrawResponse{
		WithdrawalValue:   types.RoundedValueOf(price, amount).String(),
		DepositAmount:     balance.DepositAmount.String(),
		TotalDepositValue: position.TotalDepositValue.String(),
	}, nil
}
