package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// InitBank creates the pool for an asset with zeroed totals and the
// placeholder interest rate. One bank per denom; re-initialization fails.
func (k *Keeper) InitBank(
	ctx sdk.Context,
	authority, denom string,
	decimals uint32,
	liquidationThreshold, maxLTV math.Int,
	priceFeedID string,
) (*types.Bank, error) {
	if k.GetBank(ctx, denom) != nil {
		return nil, types.ErrBankExists
	}

	bank := types.NewBank(authority, denom, decimals, liquidationThreshold, maxLTV, priceFeedID)
	bank.LastUpdated = ctx.BlockTime().Unix()
	k.SetBank(ctx, bank)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_init_bank",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("authority", authority),
			sdk.NewAttribute("liquidation_threshold", liquidationThreshold.String()),
			sdk.NewAttribute("max_ltv", maxLTV.String()),
			sdk.NewAttribute("price_feed_id", priceFeedID),
		),
	)

	k.logger.Info("Bank initialized",
		"denom", denom,
		"authority", authority,
		"liquidation_threshold", liquidationThreshold.String(),
		"max_ltv", maxLTV.String(),
	)

	return bank, nil
}

// InitUserTokenBalance creates an empty per-asset balance record for a user.
func (k *Keeper) InitUserTokenBalance(ctx sdk.Context, owner, denom, name string) (*types.UserTokenBalance, error) {
	if k.GetUserTokenBalance(ctx, owner, denom) != nil {
		return nil, types.ErrUserBalanceExists
	}

	balance := types.NewUserTokenBalance(owner, denom, name)
	k.SetUserTokenBalance(ctx, balance)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_init_user_balance",
			sdk.NewAttribute("owner", owner),
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("name", name),
		),
	)

	k.logger.Info("User token balance initialized",
		"owner", owner,
		"denom", denom,
	)

	return balance, nil
}
