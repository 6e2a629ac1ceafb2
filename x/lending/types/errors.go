package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsufficientFunds      = errors.Register(ModuleName, 1, "insufficient funds in custody account")
	ErrOverBorrowableAmount   = errors.Register(ModuleName, 2, "requested amount exceeds borrowable amount")
	ErrOverRepay              = errors.Register(ModuleName, 3, "repay exceeds outstanding borrow")
	ErrNotUnderCollateralized = errors.Register(ModuleName, 4, "position is not under collateralized, cannot liquidate")
	ErrMathOverflow           = errors.Register(ModuleName, 5, "math overflow")
	ErrInsufficientBorrow     = errors.Register(ModuleName, 6, "insufficient borrow amount")
	ErrExceedsMaxLTV          = errors.Register(ModuleName, 7, "exceeds max LTV")
	ErrInsufficientCollateral = errors.Register(ModuleName, 8, "insufficient collateral")
	ErrInvalidDecimals        = errors.Register(ModuleName, 9, "invalid decimals")
	ErrStalePrice             = errors.Register(ModuleName, 10, "stale or missing price quote")

	// Record addressing errors. The original platform resolved records
	// before the operation ran; with injected keyed stores a failed lookup
	// surfaces here instead.
	ErrBankNotFound         = errors.Register(ModuleName, 11, "bank not found")
	ErrBankExists           = errors.Register(ModuleName, 12, "bank already exists")
	ErrUserPositionNotFound = errors.Register(ModuleName, 13, "user position not found")
	ErrUserBalanceNotFound  = errors.Register(ModuleName, 14, "user token balance not found")
	ErrUserBalanceExists    = errors.Register(ModuleName, 15, "user token balance already exists")
)
