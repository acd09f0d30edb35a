package sigs

import (
	"testing"
	"time"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/ledgertest"
	"github.com/fymoney/ledger/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureChecker records the context it was called with so tests can
// inspect what the decorator injected.
type captureChecker struct {
	ctx    ledger.Context
	called int
}

func (c *captureChecker) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	c.ctx = ctx
	c.called++
	return &ledger.CheckResult{}, nil
}

func (c *captureChecker) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	c.ctx = ctx
	c.called++
	return &ledger.DeliverResult{}, nil
}

func signedAt(t *testing.T, keys []*crypto.PrivateKey, checkpoint int64) *signedTx {
	t.Helper()

	tx := &signedTx{payload: []byte("payload"), checkpoint: checkpoint}
	for _, key := range keys {
		sig, err := SignTx(key, tx, chainID)
		require.NoError(t, err)
		tx.sigs = append(tx.sigs, sig)
	}
	return tx
}

func TestDecoratorCheckpointWindow(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()

	cases := map[string]struct {
		height     int64
		checkpoint int64
		wantErr    *errors.Error
	}{
		"fresh checkpoint":           {height: 100, checkpoint: 100},
		"checkpoint at window edge":  {height: 100, checkpoint: 80},
		"stale checkpoint":           {height: 100, checkpoint: 79, wantErr: ErrStaleCheckpoint},
		"checkpoint from the future": {height: 100, checkpoint: 101, wantErr: ErrInvalidCheckpoint},
		"very old stale checkpoint":  {height: 1000, checkpoint: 1, wantErr: ErrStaleCheckpoint},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d := NewDecorator().WithMaxCheckpointAge(20)
			db := store.MemStore()
			next := &captureChecker{}
			ctx := ledgertest.Ctx(tc.height, time.Unix(1234567890, 0))

			tx := signedAt(t, []*crypto.PrivateKey{key}, tc.checkpoint)
			_, err := d.Check(ctx, db, tx, next)
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
				assert.Equal(t, 0, next.called)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, next.called)
		})
	}
}

func TestDecoratorInjectsSigners(t *testing.T) {
	sponsor := crypto.GenPrivKeyEd25519()
	principal := crypto.GenPrivKeyEd25519()

	d := NewDecorator()
	db := store.MemStore()
	next := &captureChecker{}
	ctx := ledgertest.Ctx(10, time.Unix(1234567890, 0))

	tx := signedAt(t, []*crypto.PrivateKey{sponsor, principal}, 10)
	res, err := d.Check(ctx, db, tx, next)
	require.NoError(t, err)

	// both signers are visible downstream
	auth := Authenticate{}
	assert.True(t, auth.HasAddress(next.ctx, sponsor.PublicKey().Address()))
	assert.True(t, auth.HasAddress(next.ctx, principal.PublicKey().Address()))
	assert.False(t, auth.HasAddress(next.ctx, crypto.GenPrivKeyEd25519().PublicKey().Address()))

	// signature verification is paid for
	assert.Equal(t, 2*signatureVerifyCost, res.GasPayment)
}

func TestDecoratorMissingSignatures(t *testing.T) {
	d := NewDecorator()
	db := store.MemStore()
	ctx := ledgertest.Ctx(10, time.Unix(1234567890, 0))
	tx := &signedTx{payload: []byte("payload"), checkpoint: 10}

	_, err := d.Check(ctx, db, tx, &captureChecker{})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// deliver path behaves the same
	_, err = d.Deliver(ctx, db, tx, &captureChecker{})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// unless explicitly allowed
	next := &captureChecker{}
	_, err = d.AllowMissingSigs().Check(ctx, db, tx, next)
	assert.NoError(t, err)
	assert.Equal(t, 1, next.called)
}

func TestDecoratorPassesUnsignedTxTypes(t *testing.T) {
	d := NewDecorator()
	db := store.MemStore()
	ctx := ledgertest.Ctx(10, time.Unix(1234567890, 0))

	next := &captureChecker{}
	_, err := d.Check(ctx, db, &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: "test/noop"}}, next)
	require.NoError(t, err)
	assert.Equal(t, 1, next.called)
}

func TestDecoratorRejectsInvalidSignature(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()

	d := NewDecorator()
	db := store.MemStore()
	ctx := ledgertest.Ctx(10, time.Unix(1234567890, 0))

	tx := signedAt(t, []*crypto.PrivateKey{key}, 10)
	tx.payload = []byte("tampered")

	_, err := d.Deliver(ctx, db, tx, &captureChecker{})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}
