package coin

import (
	"fmt"
	"regexp"

	"github.com/fymoney/ledger/errors"
)

// IsCC is the RegExp to ensure valid token tickers
var IsCC = regexp.MustCompile(`^[A-Z]{3,10}$`).MatchString

// Coin is an amount of a fungible token expressed in base units. There is
// no fractional part; one unit is the smallest denomination the token
// supports.
type Coin struct {
	// Amount is a whole number of base units. It may be negative in
	// intermediate math but never when persisted in a wallet.
	Amount int64 `protobuf:"varint,1,opt,name=amount,proto3" json:"amount,omitempty"`
	// Ticker identifies the token kind, eg. USDC
	Ticker string `protobuf:"bytes,2,opt,name=ticker,proto3" json:"ticker,omitempty"`
}

func (c *Coin) Reset()         { *c = Coin{} }
func (c *Coin) ProtoMessage()  {}
func (c *Coin) String() string { return fmt.Sprintf("%d %s", c.Amount, c.Ticker) }

// NewCoin creates a new coin object
func NewCoin(amount int64, ticker string) Coin {
	return Coin{
		Amount: amount,
		Ticker: ticker,
	}
}

// SameType returns true if both coins are the same token kind.
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// IsPositive returns true if the amount is greater than zero.
func (c Coin) IsPositive() bool {
	return c.Amount > 0
}

// IsNonNegative returns true if the amount is zero or greater.
func (c Coin) IsNonNegative() bool {
	return c.Amount >= 0
}

// IsZero returns true if the amount is exactly zero.
func (c Coin) IsZero() bool {
	return c.Amount == 0
}

// Equals returns true if both coins represent the same value of the same
// token kind.
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Amount == o.Amount
}

// Negative returns the opposite coin, so that c.Add(c.Negative()) is zero.
func (c Coin) Negative() Coin {
	return Coin{
		Ticker: c.Ticker,
		Amount: -c.Amount,
	}
}

// Add combines two coins of the same token kind.
// It returns an error on a ticker mismatch or int64 overflow.
func (c Coin) Add(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrAmount, "adding %s to %s", o.Ticker, c.Ticker)
	}
	sum := c.Amount + o.Amount
	// overflow is only possible when both operands share a sign
	if (c.Amount > 0 && o.Amount > 0 && sum < 0) ||
		(c.Amount < 0 && o.Amount < 0 && sum > 0) {
		return Coin{}, errors.Wrap(errors.ErrOverflow, "amount")
	}
	c.Amount = sum
	return c, nil
}

// Subtract removes the given amount of the same token kind.
func (c Coin) Subtract(o Coin) (Coin, error) {
	return c.Add(o.Negative())
}

// IsGTE returns true if c holds at least as much as o of the same token.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Amount >= o.Amount
}

// Validate ensures the coin is has a proper ticker and a non-negative
// amount, as required for anything written to a wallet.
func (c Coin) Validate() error {
	if !IsCC(c.Ticker) {
		return errors.Wrapf(errors.ErrAmount, "invalid ticker: %s", c.Ticker)
	}
	if !c.IsNonNegative() {
		return errors.Wrapf(errors.ErrAmount, "negative amount: %d", c.Amount)
	}
	return nil
}
