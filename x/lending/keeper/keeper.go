package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lending-core/x/lending/types"
)

// Store key prefixes
var (
	BankKeyPrefix             = []byte{0x01}
	UserPositionKeyPrefix     = []byte{0x02}
	UserTokenBalanceKeyPrefix = []byte{0x03}
	PriceQuoteKeyPrefix       = []byte{0x04}
)

// BankKeeper defines the expected custody interface. The module never moves
// funds itself; it requests a transfer and treats denial as a full abort.
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the lending module state
type Keeper struct {
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string
}

// NewKeeper creates a new lending keeper
func NewKeeper(
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/lending"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the administrative authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Bank Operations ============

// bankKey generates the key for a bank
func bankKey(denom string) []byte {
	return append(BankKeyPrefix, []byte(denom)...)
}

// SetBank saves a bank to the store
func (k *Keeper) SetBank(ctx sdk.Context, bank *types.Bank) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(bank)
	store.Set(bankKey(bank.Denom), bz)
}

// GetBank retrieves a bank from the store
func (k *Keeper) GetBank(ctx sdk.Context, denom string) *types.Bank {
	store := k.GetStore(ctx)
	bz := store.Get(bankKey(denom))
	if bz == nil {
		return nil
	}
	var bank types.Bank
	if err := json.Unmarshal(bz, &bank); err != nil {
		return nil
	}
	return &bank
}

// GetAllBanks returns all banks
func (k *Keeper) GetAllBanks(ctx sdk.Context) []*types.Bank {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, BankKeyPrefix)
	defer iterator.Close()

	var banks []*types.Bank
	for ; iterator.Valid(); iterator.Next() {
		var bank types.Bank
		if err := json.Unmarshal(iterator.Value(), &bank); err != nil {
			continue
		}
		banks = append(banks, &bank)
	}
	return banks
}

// ============ User Position Operations ============

// userPositionKey generates the key for a user position
func userPositionKey(owner string) []byte {
	return append(UserPositionKeyPrefix, []byte(owner)...)
}

// SetUserPosition saves a user position to the store
func (k *Keeper) SetUserPosition(ctx sdk.Context, position *types.UserPosition) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(position)
	store.Set(userPositionKey(position.Owner), bz)
}

// GetUserPosition retrieves a user position from the store
func (k *Keeper) GetUserPosition(ctx sdk.Context, owner string) *types.UserPosition {
	store := k.GetStore(ctx)
	bz := store.Get(userPositionKey(owner))
	if bz == nil {
		return nil
	}
	var position types.UserPosition
	if err := json.Unmarshal(bz, &position); err != nil {
		return nil
	}
	return &position
}

// GetAllUserPositions returns all user positions
func (k *Keeper) GetAllUserPositions(ctx sdk.Context) []*types.UserPosition {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, UserPositionKeyPrefix)
	defer iterator.Close()

	var positions []*types.UserPosition
	for ; iterator.Valid(); iterator.Next() {
		var position types.UserPosition
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		positions = append(positions, &position)
	}
	return positions
}

// ============ User Token Balance Operations ============

// userTokenBalanceKey generates the key for a (user, asset) balance
func userTokenBalanceKey(owner, denom string) []byte {
	return append(UserTokenBalanceKeyPrefix, []byte(owner+":"+denom)...)
}

// SetUserTokenBalance saves a per-asset balance to the store
func (k *Keeper) SetUserTokenBalance(ctx sdk.Context, balance *types.UserTokenBalance) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(balance)
	store.Set(userTokenBalanceKey(balance.Owner, balance.Denom), bz)
}

// GetUserTokenBalance retrieves a per-asset balance from the store
func (k *Keeper) GetUserTokenBalance(ctx sdk.Context, owner, denom string) *types.UserTokenBalance {
	store := k.GetStore(ctx)
	bz := store.Get(userTokenBalanceKey(owner, denom))
	if bz == nil {
		return nil
	}
	var balance types.UserTokenBalance
	if err := json.Unmarshal(bz, &balance); err != nil {
		return nil
	}
	return &balance
}

// GetUserTokenBalances returns all per-asset balances for a user
func (k *Keeper) GetUserTokenBalances(ctx sdk.Context, owner string) []*types.UserTokenBalance {
	store := k.GetStore(ctx)
	prefix := append(UserTokenBalanceKeyPrefix, []byte(owner+":")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var balances []*types.UserTokenBalance
	for ; iterator.Valid(); iterator.Next() {
		var balance types.UserTokenBalance
		if err := json.Unmarshal(iterator.Value(), &balance); err != nil {
			continue
		}
		balances = append(balances, &balance)
	}
	return balances
}
