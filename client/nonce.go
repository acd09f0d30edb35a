package client

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x/escrow"
)

// DefaultProbeLimit bounds how many consecutive nonces Free inspects
// before giving up.
const DefaultProbeLimit = 64

// NonceResolver finds a nonce whose derived escrow address is not yet
// in use for a given sender and recipient hash.
type NonceResolver struct {
	chain Ledger
	limit uint64
}

// NewNonceResolver creates a resolver with the default probe limit.
func NewNonceResolver(chain Ledger) *NonceResolver {
	return &NonceResolver{chain: chain, limit: DefaultProbeLimit}
}

// Free returns the first nonce at or after start whose escrow address
// is unused. This is a check-then-act probe: another writer can take
// the address between the probe and the submission. The ledger rejects
// that collision as a duplicate, which the caller handles by retrying
// with the next nonce.
func (r *NonceResolver) Free(sender ledger.Address, recipientHash []byte, start uint64) (uint64, error) {
	for nonce := start; nonce < start+r.limit; nonce++ {
		taken, err := r.chain.HasEscrow(escrow.Addr(sender, recipientHash, nonce))
		if err != nil {
			return 0, errors.Wrap(err, "probe escrow address")
		}
		if !taken {
			return nonce, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrState, "no free nonce within %d probes", r.limit)
}
