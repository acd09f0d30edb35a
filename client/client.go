/*
Package client glues the off-chain pieces of an escrow transfer
together: nonce resolution, the sponsor/principal co-signing handshake
and transaction assembly and submission.

Unlike the on-ledger extensions, code here may log. The ledger is the
single source of truth; everything the client records elsewhere is a
best-effort side channel.
*/
package client

import (
	"context"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/x/escrow"
)

// Ledger is the node surface the client depends on. *app.Ledger
// satisfies it for in-process use.
type Ledger interface {
	ChainID() string
	// Height is the checkpoint source for fresh signatures.
	Height() int64
	SubmitTx(tx ledger.Tx) (*ledger.DeliverResult, error)
	HasEscrow(addr ledger.Address) (bool, error)
	Escrow(addr ledger.Address) (*escrow.Escrow, error)
	Balance(addr ledger.Address) (coin.Coins, error)
}

// Event describes a transfer lifecycle change observed by the client.
type Event struct {
	EscrowAddress ledger.Address
	Sender        ledger.Address
	// RecipientID is the off-chain identifier, eg. an email address.
	// It never reaches the ledger, only its hash does.
	RecipientID   string
	RecipientHash []byte
	// Recipient is the claiming wallet, set on claim events only.
	Recipient ledger.Address
	Amount    coin.Coin
	ExpiresAt ledger.UnixTime
	Nonce     uint64
}

// Observer consumes transfer lifecycle events, eg. the status mirror
// or the notification dispatcher. Observer failures are logged by the
// service and never roll back or block the ledger operation.
type Observer interface {
	EscrowCreated(ctx context.Context, ev Event) error
	EscrowClaimed(ctx context.Context, ev Event) error
	EscrowReclaimed(ctx context.Context, ev Event) error
}
