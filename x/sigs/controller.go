package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures checks all the signatures on the tx against its
// sign bytes and checkpoint.
//
// returns list of signer conditions (possibly empty),
// or error if any signature is invalid
func VerifyTxSignatures(tx SignedTx, chainID string) ([]ledger.Condition, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	toSign, err := BuildSignBytes(bz, chainID, tx.GetCheckpoint())
	if err != nil {
		return nil, err
	}

	sigs := tx.GetSignatures()
	signers := make([]ledger.Condition, 0, len(sigs))
	for _, sig := range sigs {
		if err := sig.Validate(); err != nil {
			return nil, err
		}
		if !sig.Pubkey.Verify(toSign, sig.Signature) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
		}
		signers = append(signers, sig.Pubkey.Condition())
	}

	return signers, nil
}

/*
BuildSignBytes combines all info on the actual tx before signing.

We use the following format:

	version | len(chainID) | chainID      | checkpoint        | signBytes
	4bytes  | uint8        | ascii string | int64 (bigendian) | serialized transaction

This is then prehashed with sha512 before fed into
the public key signing/verification step.

Binding the checkpoint into the signed bytes means a signature is only
valid for the exact freshness token it was produced with. A stale
authorization cannot be replayed against a newer checkpoint.
*/
func BuildSignBytes(signBytes []byte, chainID string, checkpoint int64) ([]byte, error) {
	if checkpoint < 0 {
		return nil, errors.Wrap(ErrInvalidCheckpoint, "negative")
	}
	if !ledger.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	// encode checkpoint as 8 byte, big-endian
	cp := make([]byte, 8)
	binary.BigEndian.PutUint64(cp, uint64(checkpoint))

	// concatentate everything
	output := make([]byte, 0, 4+1+len(chainID)+8+len(signBytes))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, []byte(chainID)...)
	output = append(output, cp...)
	output = append(output, signBytes...)

	// now, we take the sha512 hash of the result,
	// so we have a constant length output to feed into eddsa
	// which we need so hardware devices can support this as well
	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// BuildSignBytesTx calculates the sign bytes given a tx
func BuildSignBytesTx(tx SignedTx, chainID string) ([]byte, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	return BuildSignBytes(signBytes, chainID, tx.GetCheckpoint())
}

// SignTx creates a signature for the given tx, bound to the
// transaction's checkpoint.
func SignTx(signer crypto.Signer, tx SignedTx, chainID string) (*StdSignature, error) {
	signBytes, err := BuildSignBytesTx(tx, chainID)
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(signBytes)
	if err != nil {
		return nil, err
	}

	return &StdSignature{
		Pubkey:    signer.PublicKey(),
		Signature: sig,
	}, nil
}
