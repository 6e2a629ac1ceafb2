package keeper

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/lending-core/x/lending/types"
)

// fakeBankKeeper records transfer requests and can be told to deny them.
type fakeBankKeeper struct {
	toModule     []sdk.Coins
	toAccount    []sdk.Coins
	denyInbound  error
	denyOutbound error
}

func (f *fakeBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	if f.denyInbound != nil {
		return f.denyInbound
	}
	f.toModule = append(f.toModule, amt)
	return nil
}

func (f *fakeBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	if f.denyOutbound != nil {
		return f.denyOutbound
	}
	f.toAccount = append(f.toAccount, amt)
	return nil
}

// newTestKeeper builds a keeper backed by an in-memory commit multistore.
func newTestKeeper(t *testing.T) (*Keeper, sdk.Context, *fakeBankKeeper) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Unix(1_700_000_000, 0),
		Height: 1,
	}, false, log.NewNopLogger())

	bk := &fakeBankKeeper{}
	k := NewKeeper(storeKey, bk, testAddr("authority"), log.NewNopLogger())
	return k, ctx, bk
}

// testAddr derives a deterministic bech32 account address from a label.
func testAddr(name string) string {
	addr := make([]byte, 20)
	copy(addr, name)
	return sdk.AccAddress(addr).String()
}

// initTestBank creates a bank with a fresh whole-unit quote.
func initTestBank(t *testing.T, k *Keeper, ctx sdk.Context, denom string, threshold, maxLTV int64, price int64) *types.Bank {
	t.Helper()

	feedID := "feed:" + denom
	bank, err := k.InitBank(ctx, testAddr("authority"), denom, 9, math.NewInt(threshold), math.NewInt(maxLTV), feedID)
	if err != nil {
		t.Fatalf("InitBank(%s): %v", denom, err)
	}
	setTestQuote(k, ctx, feedID, price, 0)
	return bank
}

// setTestQuote stores a quote publishing at the current block time.
func setTestQuote(k *Keeper, ctx sdk.Context, feedID string, price int64, exponent int32) {
	k.SetPriceQuote(ctx, &types.PriceQuote{
		FeedID:      feedID,
		Price:       price,
		Exponent:    exponent,
		PublishTime: ctx.BlockTime().Unix(),
	})
}

// initTestAccount opens a per-asset balance for the user.
func initTestAccount(t *testing.T, k *Keeper, ctx sdk.Context, user, denom string) {
	t.Helper()
	if _, err := k.InitUserTokenBalance(ctx, user, denom, denom); err != nil {
		t.Fatalf("InitUserTokenBalance(%s, %s): %v", user, denom, err)
	}
}

// scaleInt is the scaled ledger representation of an unscaled amount.
func scaleInt(amount int64) math.Int {
	return math.NewInt(amount).MulRaw(types.AmountScale)
}
