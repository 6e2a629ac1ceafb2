package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// Borrow lends pool liquidity against the user's total collateral value.
// The gate compares total collateral across all assets against the borrowed
// bank's liquidation threshold, not a per-asset limit. The vault transfer
// happens before the ledger updates.
func (k *Keeper) Borrow(ctx sdk.Context, borrower, denom string, amount math.Int) error {
	bank := k.GetBank(ctx, denom)
	if bank == nil {
		return types.ErrBankNotFound
	}
	balance := k.GetUserTokenBalance(ctx, borrower, denom)
	if balance == nil {
		return types.ErrUserBalanceNotFound
	}
	user := k.GetUserPosition(ctx, borrower)
	if user == nil {
		return types.ErrUserPositionNotFound
	}

	addr, err := sdk.AccAddressFromBech32(borrower)
	if err != nil {
		return err
	}

	scaled, err := types.ScaleAmount(amount)
	if err != nil {
		return err
	}

	price, err := k.GetPriceNoOlderThan(ctx, bank.PriceFeedID, types.MaxQuoteAge)
	if err != nil {
		return err
	}

	borrowableAmount := types.Float64Value(user.TotalDepositValue) *
		(float64(bank.LiquidationThreshold.Int64()) / float64(types.LiquidationThresholdScale))
	requestedValue := price * float64(amount.Int64())

	// Existing debt counts against the borrowing capacity.
	if borrowableAmount < types.Float64Value(user.TotalBorrowValue)+requestedValue {
		k.logger.Debug("borrow rejected",
			"borrower", borrower,
			"borrowable_amount", borrowableAmount,
			"requested_value", requestedValue,
			"total_borrow_value", user.TotalBorrowValue.String(),
		)
		return types.ErrOverBorrowableAmount
	}

	coins := sdk.NewCoins(sdk.NewCoin(denom, scaled))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, addr, coins); err != nil {
		return err
	}

	now := ctx.BlockTime().Unix()
	bank.AddBorrow(scaled)
	bank.LastUpdated = now
	balance.AddBorrow(scaled, now)
	user.TotalBorrowValue = user.TotalBorrowValue.Add(types.ValueOf(price, amount))

	k.SetBank(ctx, bank)
	k.SetUserTokenBalance(ctx, balance)
	k.SetUserPosition(ctx, user)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_borrow",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("borrower", borrower),
			sdk.NewAttribute("amount", amount.String()),
			sdk.NewAttribute("scaled_amount", scaled.String()),
			sdk.NewAttribute("total_borrow_value", user.TotalBorrowValue.String()),
		),
	)

	k.logger.Info("Borrow processed",
		"denom", denom,
		"borrower", borrower,
		"amount", amount.String(),
		"total_borrow_value", user.TotalBorrowValue.String(),
	)

	return nil
}
