package cash

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
)

// CoinMover is the functionality other extensions use to shift
// balances around.
type CoinMover interface {
	// MoveCoins moves the given amount from src to dest.
	// It fails if src doesn't exist or holds too little.
	MoveCoins(db ledger.KVStore, src, dest ledger.Address, amount coin.Coin) error
}

// Controller is the entry point for all balance mutations. It
// encapsulates the wallet bucket so handlers never touch raw keys.
type Controller struct {
	bucket Bucket
}

var _ CoinMover = Controller{}

// NewController returns a controller using the default wallet bucket.
func NewController() Controller {
	return Controller{bucket: NewBucket()}
}

// MoveCoins moves the given amount from src to dest.
func (c Controller) MoveCoins(db ledger.KVStore, src, dest ledger.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive transfer: %v", &amount)
	}

	sender, err := c.bucket.Get(db, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "source %s", src)
	}
	if !sender.Coins().Contains(amount) {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds in %s", src)
	}

	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := sender.Subtract(amount); err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}

	if err := c.bucket.Save(db, sender); err != nil {
		return err
	}
	return c.bucket.Save(db, recipient)
}

// MoveAll drains the entire src balance into dest and removes the src
// wallet. This is how custody accounts are settled.
func (c Controller) MoveAll(db ledger.KVStore, src, dest ledger.Address) (coin.Coins, error) {
	sender, err := c.bucket.Get(db, src)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errors.Wrapf(errors.ErrEmpty, "source %s", src)
	}

	moved := sender.Coins().Clone()
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return nil, err
	}
	for _, cn := range moved {
		if err := recipient.Add(*cn); err != nil {
			return nil, err
		}
		if err := sender.Subtract(*cn); err != nil {
			return nil, err
		}
	}

	if err := c.bucket.Save(db, sender); err != nil {
		return nil, err
	}
	if err := c.bucket.Save(db, recipient); err != nil {
		return nil, err
	}
	return moved, nil
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
//
// Note the amount may also be negative:
// "the lord giveth and the lord taketh away"
func (c Controller) IssueCoins(db ledger.KVStore, dest ledger.Address, amount coin.Coin) error {
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(db, recipient)
}

// Balance returns all coins held by the given account. A missing
// account reports an empty balance, not an error.
func (c Controller) Balance(db ledger.ReadOnlyKVStore, addr ledger.Address) (coin.Coins, error) {
	wallet, err := c.bucket.Get(db, addr)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, nil
	}
	return wallet.Coins(), nil
}

// HasWallet returns true if the address has a persisted wallet.
func (c Controller) HasWallet(db ledger.ReadOnlyKVStore, addr ledger.Address) (bool, error) {
	return c.bucket.Has(db, addr)
}
