package types

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgInitBank             = "init_bank"
	TypeMsgInitUserTokenBalance = "init_user_token_balance"
	TypeMsgDeposit              = "deposit"
	TypeMsgBorrow               = "borrow"
	TypeMsgRepay                = "repay"
	TypeMsgWithdraw             = "withdraw"
)

// validateAmount checks the shared amount field: a parseable, strictly
// positive integer in unscaled token units.
func validateAmount(amount string) error {
	v, ok := math.NewIntFromString(amount)
	if !ok {
		return fmt.Errorf("invalid amount: %s", amount)
	}
	if !v.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

// MsgInitBank defines the InitBank message
type MsgInitBank struct {
	Authority            string `json:"authority"`
	Denom                string `json:"denom"`
	Decimals             uint32 `json:"decimals"`
	LiquidationThreshold string `json:"liquidation_threshold"`
	MaxLTV               string `json:"max_ltv"`
	PriceFeedID          string `json:"price_feed_id"`
}

// Route implements sdk.Msg
func (msg MsgInitBank) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgInitBank) Type() string { return TypeMsgInitBank }

// ValidateBasic implements sdk.Msg
func (msg MsgInitBank) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return err
	}
	if msg.PriceFeedID == "" {
		return errors.New("price feed id cannot be empty")
	}
	if _, ok := math.NewIntFromString(msg.LiquidationThreshold); !ok {
		return fmt.Errorf("invalid liquidation threshold: %s", msg.LiquidationThreshold)
	}
	if _, ok := math.NewIntFromString(msg.MaxLTV); !ok {
		return fmt.Errorf("invalid max LTV: %s", msg.MaxLTV)
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgInitBank) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgInitBank) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgInitBank) Reset() { *msg = MsgInitBank{} }

// String implements proto.Message
func (msg MsgInitBank) String() string {
	return fmt.Sprintf("MsgInitBank{Authority: %s, Denom: %s, PriceFeedID: %s}", msg.Authority, msg.Denom, msg.PriceFeedID)
}

// MsgInitBankResponse defines the InitBank response
type MsgInitBankResponse struct {
	Denom        string `json:"denom"`
	InterestRate string `json:"interest_rate"`
}

// MsgInitUserTokenBalance defines the InitUserTokenBalance message
type MsgInitUserTokenBalance struct {
	Owner string `json:"owner"`
	Denom string `json:"denom"`
	Name  string `json:"name"`
}

// Route implements sdk.Msg
func (msg MsgInitUserTokenBalance) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgInitUserTokenBalance) Type() string { return TypeMsgInitUserTokenBalance }

// ValidateBasic implements sdk.Msg
func (msg MsgInitUserTokenBalance) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return err
	}
	if len(msg.Name) > 8 {
		return fmt.Errorf("name too long: %s", msg.Name)
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgInitUserTokenBalance) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgInitUserTokenBalance) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgInitUserTokenBalance) Reset() { *msg = MsgInitUserTokenBalance{} }

// String implements proto.Message
func (msg MsgInitUserTokenBalance) String() string {
	return fmt.Sprintf("MsgInitUserTokenBalance{Owner: %s, Denom: %s, Name: %s}", msg.Owner, msg.Denom, msg.Name)
}

// MsgInitUserTokenBalanceResponse defines the InitUserTokenBalance response
type MsgInitUserTokenBalanceResponse struct {
	Owner string `json:"owner"`
	Denom string `json:"denom"`
}

// MsgDeposit defines the Deposit message
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	Denom     string `json:"denom"`
	Amount    string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgDeposit) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgDeposit) Type() string { return TypeMsgDeposit }

// ValidateBasic implements sdk.Msg
func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return err
	}
	return validateAmount(msg.Amount)
}

// GetSigners implements sdk.Msg
func (msg MsgDeposit) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgDeposit) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgDeposit) Reset() { *msg = MsgDeposit{} }

// String implements proto.Message
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, Denom: %s, Amount: %s}", msg.Depositor, msg.Denom, msg.Amount)
}

// MsgDepositResponse defines the Deposit response
type MsgDepositResponse struct {
	ScaledAmount      string `json:"scaled_amount"`
	DepositShares     string `json:"deposit_shares"`
	TotalDepositValue string `json:"total_deposit_value"`
}

// MsgBorrow defines the Borrow message
type MsgBorrow struct {
	Borrower string `json:"borrower"`
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgBorrow) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgBorrow) Type() string { return TypeMsgBorrow }

// ValidateBasic implements sdk.Msg
func (msg MsgBorrow) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Borrower); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return err
	}
	return validateAmount(msg.Amount)
}

// GetSigners implements sdk.Msg
func (msg MsgBorrow) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Borrower)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgBorrow) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgBorrow) Reset() { *msg = MsgBorrow{} }

// String implements proto.Message
func (msg MsgBorrow) String() string {
	return fmt.Sprintf("MsgBorrow{Borrower: %s, Denom: %s, Amount: %s}", msg.Borrower, msg.Denom, msg.Amount)
}

// MsgBorrowResponse defines the Borrow response
type MsgBorrowResponse struct {
	ScaledAmount     string `json:"scaled_amount"`
	BorrowedShares   string `json:"borrowed_shares"`
	TotalBorrowValue string `json:"total_borrow_value"`
}

// MsgRepay defines the Repay message
type MsgRepay struct {
	Borrower string `json:"borrower"`
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgRepay) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRepay) Type() string { return TypeMsgRepay }

// ValidateBasic implements sdk.Msg
func (msg MsgRepay) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Borrower); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return err
	}
	return validateAmount(msg.Amount)
}

// GetSigners implements sdk.Msg
func (msg MsgRepay) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Borrower)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgRepay) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgRepay) Reset() { *msg = MsgRepay{} }

// String implements proto.Message
func (msg MsgRepay) String() string {
	return fmt.Sprintf("MsgRepay{Borrower: %s, Denom: %s, Amount: %s}", msg.Borrower, msg.Denom, msg.Amount)
}

// MsgRepayResponse defines the Repay response
type MsgRepayResponse struct {
	RepayValue       string `json:"repay_value"`
	BorrowedAmount   string `json:"borrowed_amount"`
	TotalBorrowValue string `json:"total_borrow_value"`
}

// MsgWithdraw defines the Withdraw message
type MsgWithdraw struct {
	Withdrawer string `json:"withdrawer"`
	Denom      string `json:"denom"`
	Amount     string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgWithdraw) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgWithdraw) Type() string { return TypeMsgWithdraw }

// ValidateBasic implements sdk.Msg
func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Withdrawer); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return err
	}
	return validateAmount(msg.Amount)
}

// GetSigners implements sdk.Msg
func (msg MsgWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Withdrawer)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgWithdraw) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgWithdraw) Reset() { *msg = MsgWithdraw{} }

// String implements proto.Message
func (msg MsgWithdraw) String() string {
	return fmt.Sprintf("MsgWithdraw{Withdrawer: %s, Denom: %s, Amount: %s}", msg.Withdrawer, msg.Denom, msg.Amount)
}

// MsgWithdrawResponse defines the Withdraw response
type MsgWithdrawResponse struct {
	WithdrawalValue   string `json:"withdrawal_value"`
	DepositAmount     string `json:"deposit_amount"`
	TotalDepositValue string `json:"total_deposit_value"`
}
