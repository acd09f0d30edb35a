package client

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/app"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x/sigs"
	"github.com/fymoney/ledger/x/txfee"
)

// CoSigner holds the sponsor key and opens sponsored authorizations:
// transactions with the fee declared and the sponsor half already
// signed, waiting for the principal to authorize the funds.
//
// The sponsor signature covers the fee only. Moving funds always needs
// the principal's signature on top, which the ledger enforces.
type CoSigner struct {
	sponsor *crypto.PrivateKey
	fee     coin.Coin
	chain   Ledger
}

// NewCoSigner creates a co-signer paying the given flat fee from the
// sponsor account.
func NewCoSigner(sponsor *crypto.PrivateKey, fee coin.Coin, chain Ledger) *CoSigner {
	return &CoSigner{sponsor: sponsor, fee: fee, chain: chain}
}

// Sponsor returns the fee paying address.
func (c *CoSigner) Sponsor() ledger.Address {
	return c.sponsor.PublicKey().Address()
}

// Begin wraps a message into a transaction bound to the current ledger
// height, declares the sponsor fee and signs the sponsor half.
func (c *CoSigner) Begin(msg ledger.Msg, principal ledger.Address) (*Authorization, error) {
	tx, err := app.NewStdTx(msg, c.chain.Height())
	if err != nil {
		return nil, err
	}
	tx.Fee = &txfee.FeeInfo{Payer: c.Sponsor(), Fee: &c.fee}

	chainID := c.chain.ChainID()
	sig, err := sigs.SignTx(c.sponsor, tx, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "sponsor signature")
	}
	return &Authorization{
		tx:         tx,
		chainID:    chainID,
		principal:  principal,
		sponsorSig: sig,
	}, nil
}

// Refresh rebuilds a stale authorization against the current ledger
// height. Signatures do not carry over: the checkpoint is part of the
// signed bytes, so both halves must be produced again.
func (c *CoSigner) Refresh(a *Authorization) (*Authorization, error) {
	msg, err := a.tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return c.Begin(msg, a.principal)
}

// Authorization is a transaction halfway through the co-signing
// handshake. It becomes submittable only once both halves signed.
type Authorization struct {
	tx           *app.StdTx
	chainID      string
	principal    ledger.Address
	sponsorSig   *sigs.StdSignature
	principalSig *sigs.StdSignature
}

// Checkpoint returns the ledger height the signatures are bound to.
func (a *Authorization) Checkpoint() int64 {
	return a.tx.GetCheckpoint()
}

// SignAsPrincipal adds the funds authorizing signature. The signer
// must hold the key of the declared principal.
func (a *Authorization) SignAsPrincipal(signer crypto.Signer) error {
	if !signer.PublicKey().Address().Equals(a.principal) {
		return errors.Wrap(errors.ErrUnauthorized, "signer is not the principal")
	}
	sig, err := sigs.SignTx(signer, a.tx, a.chainID)
	if err != nil {
		return errors.Wrap(err, "principal signature")
	}
	a.principalSig = sig
	return nil
}

// Complete reports whether both halves signed.
func (a *Authorization) Complete() bool {
	return a.sponsorSig != nil && a.principalSig != nil
}

// Tx assembles the signed transaction. It fails while the handshake is
// incomplete.
func (a *Authorization) Tx() (*app.StdTx, error) {
	if !a.Complete() {
		return nil, errors.Wrap(errors.ErrState, "authorization incomplete")
	}
	a.tx.Signatures = []*sigs.StdSignature{a.sponsorSig, a.principalSig}
	return a.tx, nil
}
