package api

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openalpha/lending-core/api/types"
	"github.com/openalpha/lending-core/metrics"
	lendingtypes "github.com/openalpha/lending-core/x/lending/types"
)

func newTestService(t *testing.T) *KeeperService {
	t.Helper()
	svc, err := NewKeeperService(log.NewNopLogger())
	if err != nil {
		t.Fatalf("NewKeeperService: %v", err)
	}
	return svc
}

func serviceAddr(name string) string {
	addr := make([]byte, 20)
	copy(addr, name)
	return sdk.AccAddress(addr).String()
}

func setupPool(t *testing.T, svc *KeeperService, denom string, price int64) {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.CreateBank(ctx, &types.CreateBankRequest{
		Denom:                denom,
		Decimals:             9,
		LiquidationThreshold: "8000",
		MaxLTV:               "5000",
		PriceFeedID:          "feed:" + denom,
	}); err != nil {
		t.Fatalf("CreateBank(%s): %v", denom, err)
	}
	if _, err := svc.PushQuote(ctx, &types.PushQuoteRequest{
		FeedID: "feed:" + denom,
		Price:  price,
	}); err != nil {
		t.Fatalf("PushQuote(%s): %v", denom, err)
	}
}

func TestServiceDepositFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := serviceAddr("alice")

	setupPool(t, svc, "usdc", 1)
	if _, err := svc.OpenBalance(ctx, &types.OpenBalanceRequest{Owner: user, Denom: "usdc", Name: "usdc"}); err != nil {
		t.Fatalf("OpenBalance: %v", err)
	}
	if err := svc.Fund(ctx, &types.FundRequest{Account: user, Denom: "usdc", Amount: "100000000000000"}); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	resp, err := svc.Deposit(ctx, &types.LendingRequest{Account: user, Denom: "usdc", Amount: "100"})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if resp.ReceiptID == "" {
		t.Error("expected a custody receipt id")
	}
	if resp.Position.TotalDepositValue != "100" {
		t.Errorf("expected deposit value 100, got %s", resp.Position.TotalDepositValue)
	}
	if resp.Bank.TotalDeposits != "100000000000" {
		t.Errorf("expected scaled bank deposits, got %s", resp.Bank.TotalDeposits)
	}
}

func TestServiceDepositInsufficientFunds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := serviceAddr("alice")

	setupPool(t, svc, "usdc", 1)
	if _, err := svc.OpenBalance(ctx, &types.OpenBalanceRequest{Owner: user, Denom: "usdc", Name: "usdc"}); err != nil {
		t.Fatalf("OpenBalance: %v", err)
	}
	// No Fund call, so custody holds nothing for this account.

	_, err := svc.Deposit(ctx, &types.LendingRequest{Account: user, Denom: "usdc", Amount: "100"})
	if !errors.Is(err, lendingtypes.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// The branched write was discarded.
	if _, err := svc.GetPosition(ctx, user); !errors.Is(err, lendingtypes.ErrUserPositionNotFound) {
		t.Errorf("expected no position after failed deposit, got %v", err)
	}
	bank, err := svc.GetBank(ctx, "usdc")
	if err != nil {
		t.Fatalf("GetBank: %v", err)
	}
	if bank.TotalDeposits != "0" {
		t.Errorf("expected untouched bank, got deposits %s", bank.TotalDeposits)
	}
}

func TestServiceBorrowAgainstCollateral(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := serviceAddr("alice")

	setupPool(t, svc, "usdc", 1)
	setupPool(t, svc, "sol", 1)
	for _, denom := range []string{"usdc", "sol"} {
		if _, err := svc.OpenBalance(ctx, &types.OpenBalanceRequest{Owner: user, Denom: denom, Name: denom}); err != nil {
			t.Fatalf("OpenBalance(%s): %v", denom, err)
		}
	}
	if err := svc.Fund(ctx, &types.FundRequest{Account: user, Denom: "usdc", Amount: "100000000000000"}); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	// A second depositor supplies the sol the pool lends out.
	lender := serviceAddr("bob")
	if _, err := svc.OpenBalance(ctx, &types.OpenBalanceRequest{Owner: lender, Denom: "sol", Name: "sol"}); err != nil {
		t.Fatalf("OpenBalance(lender): %v", err)
	}
	if err := svc.Fund(ctx, &types.FundRequest{Account: lender, Denom: "sol", Amount: "100000000000000"}); err != nil {
		t.Fatalf("Fund(lender): %v", err)
	}
	if _, err := svc.Deposit(ctx, &types.LendingRequest{Account: lender, Denom: "sol", Amount: "500"}); err != nil {
		t.Fatalf("Deposit(lender): %v", err)
	}

	if _, err := svc.Deposit(ctx, &types.LendingRequest{Account: user, Denom: "usdc", Amount: "100"}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	// 100 collateral at threshold 8000 bps allows 80 of borrow value.
	resp, err := svc.Borrow(ctx, &types.LendingRequest{Account: user, Denom: "sol", Amount: "70"})
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if resp.Position.TotalBorrowValue != "70" {
		t.Errorf("expected borrow value 70, got %s", resp.Position.TotalBorrowValue)
	}

	if _, err := svc.Borrow(ctx, &types.LendingRequest{Account: user, Denom: "sol", Amount: "20"}); !errors.Is(err, lendingtypes.ErrOverBorrowableAmount) {
		t.Errorf("expected ErrOverBorrowableAmount, got %v", err)
	}
}

func TestServiceDuplicateBank(t *testing.T) {
	svc := newTestService(t)
	setupPool(t, svc, "usdc", 1)

	_, err := svc.CreateBank(context.Background(), &types.CreateBankRequest{
		Denom:                "usdc",
		Decimals:             9,
		LiquidationThreshold: "8000",
		MaxLTV:               "5000",
		PriceFeedID:          "feed:usdc",
	})
	if !errors.Is(err, lendingtypes.ErrBankExists) {
		t.Errorf("expected ErrBankExists, got %v", err)
	}
}

// TestServiceOperationMetrics verifies that lending operations feed the
// shared collector: the per-operation counter advances on success, the
// error counter advances on rejection, and the pool gauges track the
// committed ledger totals.
func TestServiceOperationMetrics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := serviceAddr("alice")

	collector := metrics.GetCollector()
	opsBefore := testutil.ToFloat64(collector.OperationsTotal.WithLabelValues("deposit", "usdc"))

	setupPool(t, svc, "usdc", 1)
	if _, err := svc.OpenBalance(ctx, &types.OpenBalanceRequest{Owner: user, Denom: "usdc", Name: "usdc"}); err != nil {
		t.Fatalf("OpenBalance: %v", err)
	}
	if err := svc.Fund(ctx, &types.FundRequest{Account: user, Denom: "usdc", Amount: "100000000000000"}); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	if _, err := svc.Deposit(ctx, &types.LendingRequest{Account: user, Denom: "usdc", Amount: "100"}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	opsAfter := testutil.ToFloat64(collector.OperationsTotal.WithLabelValues("deposit", "usdc"))
	if opsAfter != opsBefore+1 {
		t.Errorf("expected deposit counter %v, got %v", opsBefore+1, opsAfter)
	}
	if got := testutil.ToFloat64(collector.BankTotalDeposits.WithLabelValues("usdc")); got != 100e9 {
		t.Errorf("expected deposit gauge 100e9, got %v", got)
	}

	// A depositor without custody funds is rejected and counted as an error.
	poor := serviceAddr("carol")
	if _, err := svc.OpenBalance(ctx, &types.OpenBalanceRequest{Owner: poor, Denom: "usdc", Name: "usdc"}); err != nil {
		t.Fatalf("OpenBalance: %v", err)
	}
	errBefore := testutil.ToFloat64(collector.OperationErrors.WithLabelValues("deposit", "usdc", lendingtypes.ErrInsufficientFunds.Error()))
	if _, err := svc.Deposit(ctx, &types.LendingRequest{Account: poor, Denom: "usdc", Amount: "5"}); !errors.Is(err, lendingtypes.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	errAfter := testutil.ToFloat64(collector.OperationErrors.WithLabelValues("deposit", "usdc", lendingtypes.ErrInsufficientFunds.Error()))
	if errAfter != errBefore+1 {
		t.Errorf("expected error counter %v, got %v", errBefore+1, errAfter)
	}
}
