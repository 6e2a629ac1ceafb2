package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/openalpha/lending-core/api/types"
	"github.com/openalpha/lending-core/metrics"
	"github.com/openalpha/lending-core/x/lending/keeper"
	lendingtypes "github.com/openalpha/lending-core/x/lending/types"
)

// KeeperService implements LendingService against an in-memory keeper.
// It is the standalone mode of the API server: the same accounting code
// that would run on a chain, backed by a memory store and a local
// custody ledger instead of a bank module.
type KeeperService struct {
	keeper    *keeper.Keeper
	ctx       sdk.Context
	custody   *memCustody
	authority string
	mu        sync.Mutex
}

// memCustody is an in-memory token ledger standing in for the chain bank
// module. Transfers into the pool fail when the account does not hold
// enough of the asset, which is what surfaces InsufficientFunds in
// standalone mode.
type memCustody struct {
	balances map[string]math.Int // account|denom -> free balance
	pool     map[string]math.Int // denom -> pool holdings
	receipts []string
	mu       sync.Mutex
}

func newMemCustody() *memCustody {
	return &memCustody{
		balances: make(map[string]math.Int),
		pool:     make(map[string]math.Int),
	}
}

func custodyKey(account, denom string) string {
	return account + "|" + denom
}

func (c *memCustody) credit(account, denom string, amount math.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := custodyKey(account, denom)
	bal, ok := c.balances[key]
	if !ok {
		bal = math.ZeroInt()
	}
	c.balances[key] = bal.Add(amount)
}

func (c *memCustody) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, coin := range amt {
		key := custodyKey(senderAddr.String(), coin.Denom)
		bal, ok := c.balances[key]
		if !ok || bal.LT(coin.Amount) {
			return lendingtypes.ErrInsufficientFunds
		}
		c.balances[key] = bal.Sub(coin.Amount)

		pool, ok := c.pool[coin.Denom]
		if !ok {
			pool = math.ZeroInt()
		}
		c.pool[coin.Denom] = pool.Add(coin.Amount)
	}
	c.receipts = append(c.receipts, uuid.NewString())
	return nil
}

func (c *memCustody) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, coin := range amt {
		pool, ok := c.pool[coin.Denom]
		if !ok || pool.LT(coin.Amount) {
			return lendingtypes.ErrInsufficientFunds
		}
		c.pool[coin.Denom] = pool.Sub(coin.Amount)

		key := custodyKey(recipientAddr.String(), coin.Denom)
		bal, ok := c.balances[key]
		if !ok {
			bal = math.ZeroInt()
		}
		c.balances[key] = bal.Add(coin.Amount)
	}
	c.receipts = append(c.receipts, uuid.NewString())
	return nil
}

// lastReceipt returns the most recent transfer receipt ID, if any.
func (c *memCustody) lastReceipt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.receipts) == 0 {
		return ""
	}
	return c.receipts[len(c.receipts)-1]
}

// NewKeeperService creates a KeeperService with an in-memory store.
func NewKeeperService(logger log.Logger) (*KeeperService, error) {
	storeKey := storetypes.NewKVStoreKey(lendingtypes.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), storemetrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Now(),
		Height: 1,
	}, false, logger)

	custody := newMemCustody()
	authority := sdk.AccAddress([]byte("lending-api-authority")[:20]).String()
	k := keeper.NewKeeper(storeKey, custody, authority, logger)

	return &KeeperService{
		keeper:    k,
		ctx:       ctx,
		custody:   custody,
		authority: authority,
	}, nil
}

// now returns the operating context stamped with the wall clock, so the
// oracle freshness window tracks real time in standalone mode.
func (s *KeeperService) now() sdk.Context {
	return s.ctx.WithBlockTime(time.Now())
}

// run executes op on a branched context and commits only on success.
func (s *KeeperService) run(op func(ctx sdk.Context) error) error {
	cacheCtx, write := s.now().CacheContext()
	if err := op(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

func (s *KeeperService) CreateBank(ctx context.Context, req *types.CreateBankRequest) (*types.BankInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold, ok := math.NewIntFromString(req.LiquidationThreshold)
	if !ok {
		return nil, fmt.Errorf("invalid liquidation threshold: %s", req.LiquidationThreshold)
	}
	maxLTV, ok := math.NewIntFromString(req.MaxLTV)
	if !ok {
		return nil, fmt.Errorf("invalid max ltv: %s", req.MaxLTV)
	}

	err := s.run(func(c sdk.Context) error {
		_, err := s.keeper.InitBank(c, s.authority, req.Denom, req.Decimals, threshold, maxLTV, req.PriceFeedID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bankInfo(s.keeper.GetBank(s.now(), req.Denom)), nil
}

func (s *KeeperService) GetBank(ctx context.Context, denom string) (*types.BankInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bank := s.keeper.GetBank(s.now(), denom)
	if bank == nil {
		return nil, lendingtypes.ErrBankNotFound
	}
	return bankInfo(bank), nil
}

func (s *KeeperService) ListBanks(ctx context.Context) (*types.ListBanksResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	banks := s.keeper.GetAllBanks(s.now())
	infos := make([]*types.BankInfo, 0, len(banks))
	for _, bank := range banks {
		infos = append(infos, bankInfo(bank))
	}
	return &types.ListBanksResponse{Banks: infos, Total: len(infos)}, nil
}

func (s *KeeperService) OpenBalance(ctx context.Context, req *types.OpenBalanceRequest) (*types.BalanceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.run(func(c sdk.Context) error {
		_, err := s.keeper.InitUserTokenBalance(c, req.Owner, req.Denom, req.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balanceInfo(s.keeper.GetUserTokenBalance(s.now(), req.Owner, req.Denom)), nil
}

func (s *KeeperService) GetBalance(ctx context.Context, owner, denom string) (*types.BalanceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.keeper.GetUserTokenBalance(s.now(), owner, denom)
	if balance == nil {
		return nil, lendingtypes.ErrUserBalanceNotFound
	}
	return balanceInfo(balance), nil
}

func (s *KeeperService) GetPosition(ctx context.Context, owner string) (*types.PositionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position := s.keeper.GetUserPosition(s.now(), owner)
	if position == nil {
		return nil, lendingtypes.ErrUserPositionNotFound
	}
	return positionInfo(position), nil
}

func (s *KeeperService) Deposit(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lendingOp("deposit", req, s.keeper.Deposit)
}

func (s *KeeperService) Borrow(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lendingOp("borrow", req, s.keeper.Borrow)
}

func (s *KeeperService) Repay(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lendingOp("repay", req, s.keeper.Repay)
}

func (s *KeeperService) Withdraw(ctx context.Context, req *types.LendingRequest) (*types.LendingResponse, error) {
	return s.lendingOp("withdraw", req, s.keeper.Withdraw)
}

// lendingOp runs one of the four lending operations and assembles the
// shared response from the committed state.
func (s *KeeperService) lendingOp(operation string, req *types.LendingRequest, op func(sdk.Context, string, string, math.Int) error) (*types.LendingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount: %s", req.Amount)
	}

	timer := metrics.NewTimer()
	collector := metrics.GetCollector()

	if err := s.run(func(c sdk.Context) error {
		return op(c, req.Account, req.Denom, amount)
	}); err != nil {
		collector.RecordOperationError(operation, req.Denom, errLabel(err))
		if errors.Is(err, lendingtypes.ErrStalePrice) {
			if bank := s.keeper.GetBank(s.now(), req.Denom); bank != nil {
				collector.RecordStaleQuote(bank.PriceFeedID)
			}
		}
		return nil, err
	}

	c := s.now()
	bank := s.keeper.GetBank(c, req.Denom)

	collector.RecordOperation(operation, req.Denom, timer.ElapsedMs())
	if bank != nil {
		collector.RecordBankState(req.Denom,
			lendingtypes.Float64Value(bank.TotalDeposits),
			lendingtypes.Float64Value(bank.TotalBorrowed),
		)
	}
	collector.PositionsTracked.Set(float64(len(s.keeper.GetAllUserPositions(c))))

	return &types.LendingResponse{
		ReceiptID: s.custody.lastReceipt(),
		Balance:   balanceInfo(s.keeper.GetUserTokenBalance(c, req.Account, req.Denom)),
		Position:  positionInfo(s.keeper.GetUserPosition(c, req.Account)),
		Bank:      bankInfo(bank),
	}, nil
}

// errLabel maps an operation error to a bounded metric label.
func errLabel(err error) string {
	var registered *errorsmod.Error
	if errors.As(err, &registered) {
		return registered.Error()
	}
	return "internal"
}

func (s *KeeperService) PushQuote(ctx context.Context, req *types.PushQuoteRequest) (*types.QuoteInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	publishTime := req.PublishTime
	if publishTime == 0 {
		publishTime = time.Now().Unix()
	}

	quote := &lendingtypes.PriceQuote{
		FeedID:      req.FeedID,
		Price:       req.Price,
		Exponent:    req.Exponent,
		PublishTime: publishTime,
	}
	if err := s.run(func(c sdk.Context) error {
		s.keeper.SetPriceQuote(c, quote)
		return nil
	}); err != nil {
		return nil, err
	}

	age := float64(time.Now().Unix() - quote.PublishTime)
	metrics.GetCollector().RecordQuote(quote.FeedID, quote.UnitPrice(), age)

	return quoteInfo(quote), nil
}

func (s *KeeperService) GetQuote(ctx context.Context, feedID string) (*types.QuoteInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote := s.keeper.GetPriceQuote(s.now(), feedID)
	if quote == nil {
		return nil, lendingtypes.ErrStalePrice
	}
	return quoteInfo(quote), nil
}

// Fund credits a custody account, used to seed balances before
// exercising the lending operations in standalone mode.
func (s *KeeperService) Fund(ctx context.Context, req *types.FundRequest) error {
	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || !amount.IsPositive() {
		return fmt.Errorf("invalid amount: %s", req.Amount)
	}
	s.custody.credit(req.Account, req.Denom, amount)
	return nil
}

// GetKeeper returns the underlying keeper for direct access in tests.
func (s *KeeperService) GetKeeper() *keeper.Keeper {
	return s.keeper
}

// GetContext returns the SDK context.
func (s *KeeperService) GetContext() sdk.Context {
	return s.ctx
}

func bankInfo(bank *lendingtypes.Bank) *types.BankInfo {
	if bank == nil {
		return nil
	}
	return &types.BankInfo{
		Denom:                bank.Denom,
		Decimals:             bank.Decimals,
		TotalDeposits:        bank.TotalDeposits.String(),
		TotalDepositShares:   bank.TotalDepositShares.String(),
		TotalBorrowed:        bank.TotalBorrowed.String(),
		TotalBorrowedShares:  bank.TotalBorrowedShares.String(),
		LiquidationThreshold: bank.LiquidationThreshold.String(),
		MaxLTV:               bank.MaxLTV.String(),
		InterestRate:         bank.InterestRate.String(),
		PriceFeedID:          bank.PriceFeedID,
		LastUpdated:          bank.LastUpdated,
	}
}

func balanceInfo(balance *lendingtypes.UserTokenBalance) *types.BalanceInfo {
	if balance == nil {
		return nil
	}
	return &types.BalanceInfo{
		Owner:          balance.Owner,
		Denom:          balance.Denom,
		Name:           balance.Name,
		DepositAmount:  balance.DepositAmount.String(),
		DepositShares:  balance.DepositShares.String(),
		BorrowedAmount: balance.BorrowedAmount.String(),
		BorrowedShares: balance.BorrowedShares.String(),
		LastUpdate:     balance.LastUpdate,
	}
}

func positionInfo(position *lendingtypes.UserPosition) *types.PositionInfo {
	if position == nil {
		return nil
	}
	return &types.PositionInfo{
		Owner:             position.Owner,
		TotalDepositValue: position.TotalDepositValue.String(),
		TotalBorrowValue:  position.TotalBorrowValue.String(),
	}
}

func quoteInfo(quote *lendingtypes.PriceQuote) *types.QuoteInfo {
	if quote == nil {
		return nil
	}
	return &types.QuoteInfo{
		FeedID:      quote.FeedID,
		Price:       quote.Price,
		Exponent:    quote.Exponent,
		UnitPrice:   quote.UnitPrice(),
		PublishTime: quote.PublishTime,
	}
}
