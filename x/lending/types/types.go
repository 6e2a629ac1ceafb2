package types

import (
	stdmath "math"
	"math/big"
	"time"

	"cosmossdk.io/math"
)

const (
	ModuleName = "lending"
	StoreKey   = ModuleName
)

// Numeric conventions shared by every record in the module.
const (
	// MaxQuoteAge is the maximum accepted oracle quote age, in the same
	// unit as the block clock.
	MaxQuoteAge = int64(100)

	// AmountScale converts caller-supplied token amounts into ledger units.
	AmountScale = int64(1_000_000_000)

	// Basis-point scales for percentage-like bank parameters.
	InterestRateScale         = int64(10_000)
	LiquidationThresholdScale = int64(10_000)
	MaxLTVScale               = int64(10_000)
)

// Bank is the per-asset pool: aggregate deposits and borrows with share
// accounting, plus the risk parameters applied by the lending operations.
type Bank struct {
	Authority           string   `json:"authority"`
	Denom               string   `json:"denom"`
	Decimals            uint32   `json:"decimals"`
	TotalDeposits       math.Int `json:"total_deposits"`
	TotalDepositShares  math.Int `json:"total_deposit_shares"`
	TotalBorrowed       math.Int `json:"total_borrowed"`
	TotalBorrowedShares math.Int `json:"total_borrowed_shares"`

	LiquidationThreshold   math.Int `json:"liquidation_threshold"`
	LiquidationBonus       math.Int `json:"liquidation_bonus"`
	LiquidationCloseFactor math.Int `json:"liquidation_close_factor"`
	MaxLTV                 math.Int `json:"max_ltv"`

	// InterestRate is stored for a future accrual path; no current
	// operation reads it.
	InterestRate math.Int `json:"interest_rate"`

	PriceFeedID string `json:"price_feed_id"`
	LastUpdated int64  `json:"last_updated"`
}

// NewBank creates a bank with zeroed totals and the placeholder 5%
// interest rate.
func NewBank(authority, denom string, decimals uint32, liquidationThreshold, maxLTV math.Int, priceFeedID string) *Bank {
	return &Bank{
		Authority:              authority,
		Denom:                  denom,
		Decimals:               decimals,
		TotalDeposits:          math.ZeroInt(),
		TotalDepositShares:     math.ZeroInt(),
		TotalBorrowed:          math.ZeroInt(),
		TotalBorrowedShares:    math.ZeroInt(),
		LiquidationThreshold:   liquidationThreshold,
		LiquidationBonus:       math.ZeroInt(),
		LiquidationCloseFactor: math.ZeroInt(),
		MaxLTV:                 maxLTV,
		InterestRate:           math.NewInt(InterestRateScale / 20),
		PriceFeedID:            priceFeedID,
		LastUpdated:            time.Now().Unix(),
	}
}

// issueShares derives the share grant for a contribution joining an already
// funded pool side. The ratio is integer division, so small contributions
// floor to zero shares; a non-positive total also yields zero rather than
// failing the operation.
func issueShares(scaled, total, totalShares math.Int) math.Int {
	if !total.IsPositive() {
		return math.ZeroInt()
	}
	return totalShares.Mul(scaled.Quo(total))
}

// AddDeposit applies a scaled deposit to the deposit side of the ledger.
// The first deposit into an empty side bootstraps shares 1:1.
func (b *Bank) AddDeposit(scaled math.Int) {
	if b.TotalDeposits.IsZero() {
		b.TotalDeposits = scaled
		b.TotalDepositShares = scaled
		return
	}
	shares := issueShares(scaled, b.TotalDeposits, b.TotalDepositShares)
	b.TotalDeposits = b.TotalDeposits.Add(scaled)
	b.TotalDepositShares = b.TotalDepositShares.Add(shares)
}

// AddBorrow applies a scaled borrow to the borrowed side of the ledger.
func (b *Bank) AddBorrow(scaled math.Int) {
	if !b.TotalBorrowed.IsPositive() {
		b.TotalBorrowed = scaled
		b.TotalBorrowedShares = scaled
		return
	}
	shares := issueShares(scaled, b.TotalBorrowed, b.TotalBorrowedShares)
	b.TotalBorrowed = b.TotalBorrowed.Add(scaled)
	b.TotalBorrowedShares = b.TotalBorrowedShares.Add(shares)
}

// SubDeposit removes a scaled amount and the same number of shares from the
// deposit side. Exit is linear, not ratio-derived.
func (b *Bank) SubDeposit(scaled math.Int) error {
	deposits, err := subChecked(b.TotalDeposits, scaled)
	if err != nil {
		return err
	}
	shares, err := subChecked(b.TotalDepositShares, scaled)
	if err != nil {
		return err
	}
	b.TotalDeposits = deposits
	b.TotalDepositShares = shares
	return nil
}

// SubBorrow removes a scaled amount and the same number of shares from the
// borrowed side.
func (b *Bank) SubBorrow(scaled math.Int) error {
	borrowed, err := subChecked(b.TotalBorrowed, scaled)
	if err != nil {
		return err
	}
	shares, err := subChecked(b.TotalBorrowedShares, scaled)
	if err != nil {
		return err
	}
	b.TotalBorrowed = borrowed
	b.TotalBorrowedShares = shares
	return nil
}

// UserPosition is the per-user, asset-independent aggregate of collateral
// and debt in the common value unit. The values are updated incrementally
// per operation at that operation's quote, never continuously revalued.
type UserPosition struct {
	Owner             string   `json:"owner"`
	TotalDepositValue math.Int `json:"total_deposit_value"`
	TotalBorrowValue  math.Int `json:"total_borrow_value"`
}

// NewUserPosition creates an empty position, done lazily on first deposit.
func NewUserPosition(owner string) *UserPosition {
	return &UserPosition{
		Owner:             owner,
		TotalDepositValue: math.ZeroInt(),
		TotalBorrowValue:  math.ZeroInt(),
	}
}

// SubDepositValue reduces the aggregate collateral value.
func (u *UserPosition) SubDepositValue(value math.Int) error {
	v, err := subChecked(u.TotalDepositValue, value)
	if err != nil {
		return err
	}
	u.TotalDepositValue = v
	return nil
}

// SubBorrowValue reduces the aggregate debt value.
func (u *UserPosition) SubBorrowValue(value math.Int) error {
	v, err := subChecked(u.TotalBorrowValue, value)
	if err != nil {
		return err
	}
	u.TotalBorrowValue = v
	return nil
}

// UserTokenBalance is the per-user, per-asset deposit/borrow record in
// scaled ledger units.
type UserTokenBalance struct {
	Owner            string   `json:"owner"`
	Denom            string   `json:"denom"`
	Name             string   `json:"name"`
	DepositAmount    math.Int `json:"deposit_amount"`
	DepositShares    math.Int `json:"deposit_shares"`
	BorrowedAmount   math.Int `json:"borrowed_amount"`
	BorrowedShares   math.Int `json:"borrowed_shares"`
	LastUpdate       int64    `json:"last_update"`
	LastUpdateBorrow int64    `json:"last_update_borrow"`
}

// NewUserTokenBalance creates an empty per-asset balance record.
func NewUserTokenBalance(owner, denom, name string) *UserTokenBalance {
	return &UserTokenBalance{
		Owner:          owner,
		Denom:          denom,
		Name:           name,
		DepositAmount:  math.ZeroInt(),
		DepositShares:  math.ZeroInt(),
		BorrowedAmount: math.ZeroInt(),
		BorrowedShares: math.ZeroInt(),
	}
}

// AddDeposit credits a scaled deposit. User-level shares track the amount
// directly rather than going through the pool ratio.
func (b *UserTokenBalance) AddDeposit(scaled math.Int, now int64) {
	b.DepositAmount = b.DepositAmount.Add(scaled)
	b.DepositShares = b.DepositShares.Add(scaled)
	b.LastUpdate = now
}

// AddBorrow credits a scaled borrow.
func (b *UserTokenBalance) AddBorrow(scaled math.Int, now int64) {
	b.BorrowedAmount = b.BorrowedAmount.Add(scaled)
	b.BorrowedShares = b.BorrowedShares.Add(scaled)
	b.LastUpdate = now
	b.LastUpdateBorrow = now
}

// SubDeposit debits a scaled deposit with underflow checks.
func (b *UserTokenBalance) SubDeposit(scaled math.Int, now int64) error {
	amount, err := subChecked(b.DepositAmount, scaled)
	if err != nil {
		return err
	}
	shares, err := subChecked(b.DepositShares, scaled)
	if err != nil {
		return err
	}
	b.DepositAmount = amount
	b.DepositShares = shares
	b.LastUpdate = now
	return nil
}

// SubBorrow debits a scaled borrow with underflow checks.
func (b *UserTokenBalance) SubBorrow(scaled math.Int, now int64) error {
	amount, err := subChecked(b.BorrowedAmount, scaled)
	if err != nil {
		return err
	}
	shares, err := subChecked(b.BorrowedShares, scaled)
	if err != nil {
		return err
	}
	b.BorrowedAmount = amount
	b.BorrowedShares = shares
	b.LastUpdate = now
	b.LastUpdateBorrow = now
	return nil
}

// PriceQuote is a normalized oracle quote for one price feed.
type PriceQuote struct {
	FeedID      string `json:"feed_id"`
	Price       int64  `json:"price"`
	Exponent    int32  `json:"exponent"`
	PublishTime int64  `json:"publish_time"`
}

// UnitPrice applies the oracle exponent to the quoted price. The exponent
// may be negative.
func (q *PriceQuote) UnitPrice() float64 {
	return float64(q.Price) * stdmath.Pow(10, float64(q.Exponent))
}

// ScaleAmount converts an unscaled token amount into ledger units. Stored
// amounts live in the unsigned 64-bit domain; a scaled amount outside it
// fails the operation.
func ScaleAmount(amount math.Int) (math.Int, error) {
	scaled := amount.MulRaw(AmountScale)
	if scaled.IsNegative() || scaled.BigInt().BitLen() > 64 {
		return math.Int{}, ErrMathOverflow
	}
	return scaled, nil
}

// ValueOf converts a token amount to the common value unit at the given
// unit price, truncating toward zero. Deposit and borrow account value
// this way.
func ValueOf(price float64, amount math.Int) math.Int {
	return math.NewIntFromUint64(uint64(price * float64(amount.Int64())))
}

// RoundedValueOf converts with round-half-away-from-zero. Repay and
// withdraw account value this way.
func RoundedValueOf(price float64, amount math.Int) math.Int {
	return math.NewIntFromUint64(uint64(stdmath.Round(price * float64(amount.Int64()))))
}

// Float64Value converts a ledger value for floating-point capacity
// arithmetic. Position aggregates accumulate across operations and can
// exceed the int64 range, so the conversion goes through big.Float.
func Float64Value(v math.Int) float64 {
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}

// subChecked returns a-b, failing with ErrMathOverflow when the result
// would leave the unsigned domain.
func subChecked(a, b math.Int) (math.Int, error) {
	c := a.Sub(b)
	if c.IsNegative() {
		return math.Int{}, ErrMathOverflow
	}
	return c, nil
}
