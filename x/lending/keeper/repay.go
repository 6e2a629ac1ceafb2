package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// Repay returns borrowed funds to the bank vault. The outstanding-borrow
// guard runs before any value computation; every ledger mutation completes
// before the transfer is requested.
func (k *Keeper) Repay(ctx sdk.Context, borrower, denom string, amount math.Int) error {
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

	if balance.BorrowedAmount.LT(scaled) {
		return types.ErrOverRepay
	}

	price, err := k.GetPriceNoOlderThan(ctx, bank.PriceFeedID, types.MaxQuoteAge)
	if err != nil {
		return err
	}
	repayValue := types.RoundedValueOf(price, amount)

	now := ctx.BlockTime().Unix()
	if err := balance.SubBorrow(scaled, now); err != nil {
		return err
	}
	if err := user.SubBorrowValue(repayValue); err != nil {
		return err
	}
	if err := bank.SubBorrow(scaled); err != nil {
		return err
	}
	bank.LastUpdated = now

	k.SetUserTokenBalance(ctx, balance)
	k.SetUserPosition(ctx, user)
	k.SetBank(ctx, bank)

	if bank.Decimals == 0 {
		return types.ErrInvalidDecimals
	}
	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, addr, types.ModuleName, coins); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_repay",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("borrower", borrower),
			sdk.NewAttribute("amount", amount.String()),
			sdk.NewAttribute("repay_value", repayValue.String()),
		),
	)

	k.logger.Info("Repay processed",
		"denom", denom,
		"borrower", borrower,
		"amount", amount.String(),
		"repay_value", repayValue.String(),
	)

	return nil
}
