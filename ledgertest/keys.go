package ledgertest

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/crypto"
)

func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

func NewCondition() ledger.Condition {
	return NewKey().PublicKey().Condition()
}
