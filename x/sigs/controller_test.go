package sigs

import (
	"testing"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/ledgertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedTx is a minimal SignedTx for package tests.
type signedTx struct {
	payload    []byte
	checkpoint int64
	sigs       []*StdSignature
}

var _ SignedTx = (*signedTx)(nil)
var _ ledger.Tx = (*signedTx)(nil)

func (tx *signedTx) GetSignBytes() ([]byte, error)   { return tx.payload, nil }
func (tx *signedTx) GetSignatures() []*StdSignature  { return tx.sigs }
func (tx *signedTx) GetCheckpoint() int64            { return tx.checkpoint }
func (tx *signedTx) GetMsg() (ledger.Msg, error)     { return &ledgertest.Msg{RoutePath: "test/noop"}, nil }
func (tx *signedTx) Marshal() ([]byte, error)        { return tx.payload, nil }
func (tx *signedTx) Unmarshal(bz []byte) error       { tx.payload = bz; return nil }

const chainID = "testchain-1"

func TestSignAndVerifyTx(t *testing.T) {
	sponsor := crypto.GenPrivKeyEd25519()
	principal := crypto.GenPrivKeyEd25519()

	tx := &signedTx{payload: []byte("escrow initialize"), checkpoint: 50}

	sponsorSig, err := SignTx(sponsor, tx, chainID)
	require.NoError(t, err)
	principalSig, err := SignTx(principal, tx, chainID)
	require.NoError(t, err)
	tx.sigs = []*StdSignature{sponsorSig, principalSig}

	signers, err := VerifyTxSignatures(tx, chainID)
	require.NoError(t, err)
	require.Len(t, signers, 2)
	assert.True(t, signers[0].Equals(sponsor.PublicKey().Condition()))
	assert.True(t, signers[1].Equals(principal.PublicKey().Condition()))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	tx := &signedTx{payload: []byte("original"), checkpoint: 50}

	sig, err := SignTx(key, tx, chainID)
	require.NoError(t, err)
	tx.sigs = []*StdSignature{sig}

	tx.payload = []byte("tampered")
	_, err = VerifyTxSignatures(tx, chainID)
	assert.Error(t, err)
}

func TestSignatureBoundToCheckpoint(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	tx := &signedTx{payload: []byte("payload"), checkpoint: 50}

	sig, err := SignTx(key, tx, chainID)
	require.NoError(t, err)
	tx.sigs = []*StdSignature{sig}

	// the same signature is worthless for any other checkpoint
	tx.checkpoint = 51
	_, err = VerifyTxSignatures(tx, chainID)
	assert.Error(t, err)

	tx.checkpoint = 50
	_, err = VerifyTxSignatures(tx, chainID)
	assert.NoError(t, err)
}

func TestSignatureBoundToChain(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	tx := &signedTx{payload: []byte("payload"), checkpoint: 50}

	sig, err := SignTx(key, tx, chainID)
	require.NoError(t, err)
	tx.sigs = []*StdSignature{sig}

	_, err = VerifyTxSignatures(tx, "otherchain-9")
	assert.Error(t, err)
}

func TestBuildSignBytes(t *testing.T) {
	bz, err := BuildSignBytes([]byte("data"), chainID, 7)
	require.NoError(t, err)
	assert.Len(t, bz, 64)

	// deterministic
	again, err := BuildSignBytes([]byte("data"), chainID, 7)
	require.NoError(t, err)
	assert.Equal(t, bz, again)

	_, err = BuildSignBytes([]byte("data"), chainID, -1)
	assert.True(t, ErrInvalidCheckpoint.Is(err))

	_, err = BuildSignBytes([]byte("data"), "x", 7)
	assert.Error(t, err)
}

func TestStdSignatureValidate(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	tx := &signedTx{payload: []byte("payload"), checkpoint: 1}
	sig, err := SignTx(key, tx, chainID)
	require.NoError(t, err)

	assert.NoError(t, sig.Validate())
	assert.Error(t, (&StdSignature{Signature: sig.Signature}).Validate())
	assert.Error(t, (&StdSignature{Pubkey: sig.Pubkey}).Validate())
}
