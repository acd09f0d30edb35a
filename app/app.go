/*
Package app assembles the transaction processing stack: a path router,
a decorator chain and an in-process Ledger that applies transactions
atomically against a cache-wrapped store.
*/
package app

import (
	"context"
	"sync"
	"time"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/store"
	"github.com/fymoney/ledger/x/cash"
	"github.com/fymoney/ledger/x/escrow"
)

// Clock reports the current time. It is the source of block time.
type Clock func() time.Time

// Ledger processes transactions one at a time against an in-memory
// store. Every transaction runs on a cache wrap: it is either written
// through completely or discarded completely, which is the atomicity
// the escrow state machine relies on.
type Ledger struct {
	mu      sync.Mutex
	db      ledger.CacheableKVStore
	handler ledger.Handler
	chainID string
	height  int64
	now     Clock

	escrows escrow.Bucket
	bank    cash.Controller
}

// NewLedger creates a ledger processing transactions with the given
// handler stack. A nil clock defaults to wall time.
func NewLedger(handler ledger.Handler, chainID string, clock Clock) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		db:      store.MemStore(),
		handler: handler,
		chainID: chainID,
		now:     clock,
		escrows: escrow.NewBucket(),
		bank:    cash.NewController(),
	}
}

// ChainID returns the chain identifier signatures are bound to.
func (l *Ledger) ChainID() string {
	return l.chainID
}

// Height returns the current block height. Clients use it as the
// checkpoint for fresh signatures.
func (l *Ledger) Height() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// IssueCoins credits an account outside of transaction processing.
// This is the genesis faucet, not a transaction path.
func (l *Ledger) IssueCoins(addr ledger.Address, amount coin.Coin) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bank.IssueCoins(l.db, addr, amount)
}

// SubmitTx processes one transaction as its own block. The whole
// instruction either applies or the state is left byte-for-byte
// unchanged.
func (l *Ledger) SubmitTx(tx ledger.Tx) (*ledger.DeliverResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.height++
	ctx := ledger.WithChainID(context.Background(), l.chainID)
	ctx = ledger.WithHeight(ctx, l.height)
	ctx = ledger.WithBlockTime(ctx, l.now())

	// dry-run first, in its own throwaway cache
	check := l.db.CacheWrap()
	_, err := l.handler.Check(ctx, check, tx)
	check.Discard()
	if err != nil {
		return nil, err
	}

	cache := l.db.CacheWrap()
	res, err := l.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return res, nil
}

// HasEscrow returns true if an escrow record exists at the given
// address. The nonce resolver probes with this.
func (l *Ledger) HasEscrow(addr ledger.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrows.Has(l.db, addr)
}

// Escrow loads the authoritative escrow record, or ErrNotFound.
func (l *Ledger) Escrow(addr ledger.Address) (*escrow.Escrow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrows.Get(l.db, addr)
}

// Balance reports all coins held by an account. Missing accounts have
// an empty balance.
func (l *Ledger) Balance(addr ledger.Address) (coin.Coins, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bank.Balance(l.db, addr)
}
