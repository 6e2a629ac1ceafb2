package keeper

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// priceQuoteKey generates the key for a price feed
func priceQuoteKey(feedID string) []byte {
	return append(PriceQuoteKeyPrefix, []byte(feedID)...)
}

// SetPriceQuote stores the latest oracle quote for a feed.
func (k *Keeper) SetPriceQuote(ctx sdk.Context, quote *types.PriceQuote) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(quote)
	store.Set(priceQuoteKey(quote.FeedID), bz)
}

// GetPriceQuote retrieves the stored quote for a feed.
func (k *Keeper) GetPriceQuote(ctx sdk.Context, feedID string) *types.PriceQuote {
	store := k.GetStore(ctx)
	bz := store.Get(priceQuoteKey(feedID))
	if bz == nil {
		return nil
	}
	var quote types.PriceQuote
	if err := json.Unmarshal(bz, &quote); err != nil {
		return nil
	}
	return &quote
}

// GetPriceNoOlderThan returns the unit price for a feed, rejecting quotes
// older than maxAge relative to the block time.
func (k *Keeper) GetPriceNoOlderThan(ctx sdk.Context, feedID string, maxAge int64) (float64, error) {
	quote := k.GetPriceQuote(ctx, feedID)
	if quote == nil {
		return 0, types.ErrStalePrice
	}

	age := ctx.BlockTime().Unix() - quote.PublishTime
	if age > maxAge {
		k.logger.Debug("rejecting stale quote",
			"feed_id", feedID,
			"age", age,
			"max_age", maxAge,
		)
		return 0, types.ErrStalePrice
	}

	return quote.UnitPrice(), nil
}
