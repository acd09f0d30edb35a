/*
Package sigs provides the authentication middleware that verifies
transaction signatures and their checkpoint freshness.

Signatures are bound to a checkpoint, a recently observed ledger
height. A transaction whose checkpoint fell out of the allowed window
is rejected with a retryable error and must be re-signed with a fresh
checkpoint. This bounds how long a partially signed transaction can
float around before submission.
*/
package sigs

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
)

const (
	signatureVerifyCost int64 = 500

	// DefaultMaxCheckpointAge is how many blocks a signature stays
	// valid after the checkpoint it was bound to.
	DefaultMaxCheckpointAge int64 = 100
)

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	maxCheckpointAge int64
	allowMissingSigs bool
}

var _ ledger.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator,
// which binds the chainID and checkpoint into the signature,
// and requires at least one signature to be present
func NewDecorator() Decorator {
	return Decorator{
		maxCheckpointAge: DefaultMaxCheckpointAge,
		allowMissingSigs: false,
	}
}

// WithMaxCheckpointAge returns a copy of the decorator accepting
// signatures bound to checkpoints at most the given number of blocks
// old.
func (d Decorator) WithMaxCheckpointAge(blocks int64) Decorator {
	d.maxCheckpointAge = blocks
	return d
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return next.Check(ctx, db, tx)
	}

	signers, err := d.verify(ctx, stx)
	if err != nil {
		return nil, err
	}
	ctx = withSigners(ctx, signers)

	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// The most expensive operation is the signature validation. We must
	// charge gas proportionally to the effort.
	res.GasPayment += int64(len(signers)) * signatureVerifyCost
	return res, nil
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return next.Deliver(ctx, db, tx)
	}

	signers, err := d.verify(ctx, stx)
	if err != nil {
		return nil, err
	}
	ctx = withSigners(ctx, signers)
	return next.Deliver(ctx, db, tx)
}

// verify checks the checkpoint window first, then every signature. No
// state is touched, a rejected transaction leaves no trace.
func (d Decorator) verify(ctx ledger.Context, stx SignedTx) ([]ledger.Condition, error) {
	height, ok := ledger.GetHeight(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "block height is not present")
	}

	checkpoint := stx.GetCheckpoint()
	if checkpoint < 0 || checkpoint > height {
		return nil, errors.Wrapf(ErrInvalidCheckpoint, "checkpoint %d at height %d", checkpoint, height)
	}
	if height-checkpoint > d.maxCheckpointAge {
		return nil, errors.Wrapf(ErrStaleCheckpoint, "checkpoint %d at height %d", checkpoint, height)
	}

	chainID := ledger.GetChainID(ctx)
	signers, err := VerifyTxSignatures(stx, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return signers, nil
}
