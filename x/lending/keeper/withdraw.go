package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// Withdraw releases collateral from the bank vault. The solvency gate: the
// collateral remaining after the withdrawal, scaled by the bank's max LTV,
// must still cover the user's total borrow value. All ledger mutations
// complete before the transfer is requested.
func (k *Keeper) Withdraw(ctx sdk.Context, withdrawer, denom string, amount math.Int) error {
	bank := k.GetBank(ctx, denom)
	if bank == nil {
		return types.ErrBankNotFound
	}
	balance := k.GetUserTokenBalance(ctx, withdrawer, denom)
	if balance == nil {
		return types.ErrUserBalanceNotFound
	}
	user := k.GetUserPosition(ctx, withdrawer)
	if user == nil {
		return types.ErrUserPositionNotFound
	}

	addr, err := sdk.AccAddressFromBech32(withdrawer)
	if err != nil {
		return err
	}

	scaled, err := types.ScaleAmount(amount)
	if err != nil {
		return err
	}

	// Collateral sufficiency is checked before any value computation.
	if balance.DepositAmount.LT(scaled) {
		return types.ErrInsufficientCollateral
	}

	price, err := k.GetPriceNoOlderThan(ctx, bank.PriceFeedID, types.MaxQuoteAge)
	if err != nil {
		return err
	}
	withdrawalValue := types.RoundedValueOf(price, amount)

	remainingCollateral := user.TotalDepositValue.Sub(withdrawalValue)
	if remainingCollateral.IsNegative() {
		return types.ErrMathOverflow
	}

	maxAllowedBorrow := remainingCollateral.Mul(bank.MaxLTV).Quo(math.NewInt(types.MaxLTVScale))
	if user.TotalBorrowValue.GT(maxAllowedBorrow) {
		k.logger.Debug("withdraw rejected",
			"withdrawer", withdrawer,
			"remaining_collateral", remainingCollateral.String(),
			"max_allowed_borrow", maxAllowedBorrow.String(),
			"total_borrow_value", user.TotalBorrowValue.String(),
		)
		return types.ErrExceedsMaxLTV
	}

	now := ctx.BlockTime().Unix()
	if err := balance.SubDeposit(scaled, now); err != nil {
		return err
	}
	if err := user.SubDepositValue(withdrawalValue); err != nil {
		return err
	}
	if err := bank.SubDeposit(scaled); err != nil {
		return err
	}
	bank.LastUpdated = now

	k.SetUserTokenBalance(ctx, balance)
	k.SetUserPosition(ctx, user)
	k.SetBank(ctx, bank)

	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, addr, coins); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_withdraw",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("withdrawer", withdrawer),
			sdk.NewAttribute("amount", amount.String()),
			sdk.NewAttribute("withdrawal_value", withdrawalValue.String()),
		),
	)

	k.logger.Info("Withdrawal processed",
		"denom", denom,
		"withdrawer", withdrawer,
		"amount", amount.String(),
		"withdrawal_value", withdrawalValue.String(),
	)

	return nil
}
