package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// Deposit moves collateral from the depositor's custody account into the
// bank vault and credits the ledger. The collateral value is accounted
// before the transfer is requested; the pool ledger and the per-asset
// balance are updated after it succeeds.
func (k *Keeper) Deposit(ctx sdk.Context, depositor, denom string, amount math.Int) error {
	bank := k.GetBank(ctx, denom)
	if bank == nil {
		return types.ErrBankNotFound
	}
	balance := k.GetUserTokenBalance(ctx, depositor, denom)
	if balance == nil {
		return types.ErrUserBalanceNotFound
	}
	user := k.GetUserPosition(ctx, depositor)
	if user == nil {
		// Created on first deposit
		user = types.NewUserPosition(depositor)
	}

	addr, err := sdk.AccAddressFromBech32(depositor)
	if err != nil {
		return err
	}

	price, err := k.GetPriceNoOlderThan(ctx, bank.PriceFeedID, types.MaxQuoteAge)
	if err != nil {
		return err
	}

	scaled, err := types.ScaleAmount(amount)
	if err != nil {
		return err
	}

	depositValue := types.ValueOf(price, amount)
	user.TotalDepositValue = user.TotalDepositValue.Add(depositValue)
	k.SetUserPosition(ctx, user)

	coins := sdk.NewCoins(sdk.NewCoin(denom, scaled))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, addr, types.ModuleName, coins); err != nil {
		return err
	}

	now := ctx.BlockTime().Unix()
	bank.AddDeposit(scaled)
	bank.LastUpdated = now
	balance.AddDeposit(scaled, now)

	k.SetBank(ctx, bank)
	k.SetUserTokenBalance(ctx, balance)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_deposit",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("depositor", depositor),
			sdk.NewAttribute("amount", amount.String()),
			sdk.NewAttribute("scaled_amount", scaled.String()),
			sdk.NewAttribute("deposit_value", depositValue.String()),
		),
	)

	k.logger.Info("Deposit processed",
		"denom", denom,
		"depositor", depositor,
		"amount", amount.String(),
		"deposit_value", depositValue.String(),
	)

	return nil
}
