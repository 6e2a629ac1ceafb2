package keeper

import (
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/openalpha/lending-core/x/lending/types"
)

// TestWithdrawReleasesCollateral covers the full withdraw path with no
// outstanding debt.
func TestWithdrawReleasesCollateral(t *testing.T) {
	k, ctx, bk := newTestKeeper(t)
	user := testAddr("alice")

	initTestBank(t, k, ctx, "usdc", 8000, 5000, 1)
	initTestAccount(t, k, ctx, user, "usdc")

	if err := k.Deposit(ctx, user, "usdc", math.NewInt(100)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := k.Withdraw(ctx, user, "usdc", math.NewInt(40)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	bank := k.GetBank(ctx, "usdc")
	if !bank.TotalDeposits.Equal(scaleInt(60)) {
		t.Errorf("expected total deposits %s, got %s", scaleInt(60), bank.TotalDeposits)
	}
	if !bank.TotalDepositShares.Equal(scaleInt(60)) {
		t.Errorf("expected total deposit shares %s, got %s", scaleInt(60), bank.TotalDepositShares)
	}

	balance := k.GetUserTokenBalance(ctx, user, "usdc")
	if !balance.DepositAmount.Equal(scaleInt(60)) {
		t.Errorf("expected deposit amount %s, got %s", scaleInt(60), balance.DepositAmount)
	}

	position := k.GetUserPosition(ctx, user)
	if !position.TotalDepositValue.Equal(math.NewInt(60)) {
		t.Errorf("expected total deposit value 60, got %s", position.TotalDepositValue)
	}

	if len(bk.toAccount) != 1 {
		t.Fatalf("expected 1 outbound transfer, got %d", len(bk.toAccount))
	}
	if !bk.toAccount[0].AmountOf("usdc").Equal(math.NewInt(40)) {
		t.Errorf("expected outbound transfer of 40, got %s", bk.toAccount[0].AmountOf("usdc"))
	}
}

// TestWithdrawInsufficientCollateral covers over-withdrawing: the guard
// fires before any value or LTV computation, even with no quote on file.
func TestWithdrawInsufficientCollateral(t *testing.T) {
	k, ctx, _ := newTestKeeper(t)
	user := testAddr("alice")

	initTestBank(t, k, ctx, "usdc", 8000, 5000, 1)
	initTestAccount(t, k, ctx, user, "usdc")

	if err := k.Deposit(ctx, user, "usdc", math.NewInt(50)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	// Remove the quote so a guard ordered after the price fetch would
	// surface ErrStalePrice instead.
	staleCtx := ctx.WithBlockTime(ctx.BlockTime().Add(200 * time.Second))
	err := k.Withdraw(staleCtx, user, "usdc", math.NewInt(60))
	if !errors.Is(err, types.ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}

	balance := k.GetUserTokenBalance(ctx, user, "usdc")
	if !balance.DepositAmount.Equal(scaleInt(50)) {
		t.Errorf("expected deposit amount %s, got %s", scaleInt(50), balance.DepositAmount)
	}
}

// TestWithdrawLTVGate covers the solvency gate: a withdrawal fails when the
// remaining collateral scaled by max LTV no longer covers existing debt.
func TestWithdrawLTVGate(t *testing.T) {
	testCases := []struct {
		name     string
		maxLTV   int64
		borrow   int64
		withdraw int64
		wantErr  bool
	}{
		{"within LTV", 5000, 40, 10, false},
		{"at the bound", 5000, 40, 20, false},
		{"over the bound", 5000, 40, 21, true},
		{"zero LTV blocks any debtor withdrawal", 0, 1, 1, true},
		{"no debt ignores LTV", 0, 0, 50, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, ctx, _ := newTestKeeper(t)
			user := testAddr("alice")

			initTestBank(t, k, ctx, "usdc", 8000, tc.maxLTV, 1)
			initTestBank(t, k, ctx, "sol", 8000, 5000, 1)
			initTestAccount(t, k, ctx, user, "usdc")
			initTestAccount(t, k, ctx, user, "sol")

			if err := k.Deposit(ctx, user, "usdc", math.NewInt(100)); err != nil {
				t.Fatalf("Deposit: %v", err)
			}
			if tc.borrow > 0 {
				if err := k.Borrow(ctx, user, "sol", math.NewInt(tc.borrow)); err != nil {
					t.Fatalf("Borrow: %v", err)
				}
			}

			err := k.Withdraw(ctx, user, "usdc", math.NewInt(tc.withdraw))
			if tc.wantErr && !errors.Is(err, types.ErrExceedsMaxLTV) {
				t.Errorf("expected ErrExceedsMaxLTV, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected success, got %v", err)
			}
		})
	}
}

// TestWithdrawValueUnderflow covers a price move that makes the withdrawal
// worth more than the recorded collateral value: the checked subtraction
// fails and state is untouched.
func TestWithdrawValueUnderflow(t *testing.T) {
	k, ctx, _ := newTestKeeper(t)
	user := testAddr("alice")

	initTestBank(t, k, ctx, "usdc", 8000, 5000, 1)
	initTestAccount(t, k, ctx, user, "usdc")

	if err := k.Deposit(ctx, user, "usdc", math.NewInt(100)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	// Price triples after the deposit was valued
	setTestQuote(k, ctx, "feed:usdc", 3, 0)

	err := k.Withdraw(ctx, user, "usdc", math.NewInt(40))
	if !errors.Is(err, types.ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}

	bank := k.GetBank(ctx, "usdc")
	if !bank.TotalDeposits.Equal(scaleInt(100)) {
		t.Errorf("expected total deposits %s, got %s", scaleInt(100), bank.TotalDeposits)
	}
	position := k.GetUserPosition(ctx, user)
	if !position.TotalDepositValue.Equal(math.NewInt(100)) {
		t.Errorf("expected total deposit value 100, got %s", position.TotalDepositValue)
	}
}
