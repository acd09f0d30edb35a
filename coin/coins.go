package coin

import (
	"sort"

	"github.com/fymoney/ledger/errors"
)

// Coins is a set of coins, one per token kind, sorted by ticker with no
// zero values. This is the format wallets persist their balances in.
type Coins []*Coin

// Clone returns a deep copy that can be mutated independently.
func (cs Coins) Clone() Coins {
	out := make(Coins, len(cs))
	for i, c := range cs {
		cp := *c
		out[i] = &cp
	}
	return out
}

// Get returns the coin of the given token kind, or false when the set
// holds none of it.
func (cs Coins) Get(ticker string) (Coin, bool) {
	for _, c := range cs {
		if c.Ticker == ticker {
			return *c, true
		}
	}
	return Coin{}, false
}

// Contains returns true if the set holds at least the given amount.
func (cs Coins) Contains(c Coin) bool {
	held, ok := cs.Get(c.Ticker)
	if !ok {
		return false
	}
	return held.IsGTE(c)
}

// IsPositive returns true if the set holds any positive amount.
func (cs Coins) IsPositive() bool {
	for _, c := range cs {
		if c.IsPositive() {
			return true
		}
	}
	return false
}

// Add merges a coin into the set, keeping it sorted and dropping zero
// results. The amount may be negative to subtract, but the result must
// not go below zero for any token kind.
func (cs Coins) Add(add Coin) (Coins, error) {
	out := cs.Clone()
	for i, c := range out {
		if c.Ticker != add.Ticker {
			continue
		}
		sum, err := c.Add(add)
		if err != nil {
			return nil, err
		}
		if !sum.IsNonNegative() {
			return nil, errors.Wrapf(errors.ErrAmount, "insufficient %s", add.Ticker)
		}
		if sum.IsZero() {
			return append(out[:i], out[i+1:]...), nil
		}
		out[i] = &sum
		return out, nil
	}
	if !add.IsNonNegative() {
		return nil, errors.Wrapf(errors.ErrAmount, "insufficient %s", add.Ticker)
	}
	if add.IsZero() {
		return out, nil
	}
	out = append(out, &add)
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// Equals returns true if both sets hold exactly the same values.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires sorted, unique, valid and positive coins.
func (cs Coins) Validate() error {
	last := ""
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
		if !c.IsPositive() {
			return errors.Wrapf(errors.ErrAmount, "zero value: %s", c.Ticker)
		}
		if c.Ticker <= last {
			return errors.Wrapf(errors.ErrAmount, "unsorted ticker: %s", c.Ticker)
		}
		last = c.Ticker
	}
	return nil
}
