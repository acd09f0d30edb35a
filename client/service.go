package client

import (
	"context"
	"log/slog"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x/escrow"
	"github.com/fymoney/ledger/x/sigs"
)

// DefaultMaxRetries bounds how often one logical operation is
// resubmitted after a retryable rejection.
const DefaultMaxRetries = 3

// Service drives escrow transfers end to end: it resolves a free
// nonce, runs the co-signing handshake, submits the transaction and
// fans lifecycle events out to the observers.
type Service struct {
	chain      Ledger
	cosigner   *CoSigner
	nonces     *NonceResolver
	observers  []Observer
	log        *slog.Logger
	maxRetries int
}

// NewService wires a transfer service. A nil logger falls back to the
// process default.
func NewService(chain Ledger, cosigner *CoSigner, observers []Observer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		chain:      chain,
		cosigner:   cosigner,
		nonces:     NewNonceResolver(chain),
		observers:  observers,
		log:        log,
		maxRetries: DefaultMaxRetries,
	}
}

// Initialize locks amount for whoever can prove ownership of the
// recipient identifier and returns the escrow address. Address
// collisions and stale checkpoints are retried a bounded number of
// times, everything else is returned as is.
func (s *Service) Initialize(ctx context.Context, sender crypto.Signer, recipientID string, amount coin.Coin, expiresAt ledger.UnixTime) (ledger.Address, error) {
	hash, err := escrow.RecipientHash(recipientID)
	if err != nil {
		return nil, err
	}
	senderAddr := sender.PublicKey().Address()

	nonce, err := s.nonces.Free(senderAddr, hash, 0)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		msg := &escrow.InitializeMsg{
			Sender:        senderAddr,
			RecipientHash: hash,
			Amount:        &amount,
			ExpiresAt:     expiresAt,
			Nonce:         nonce,
		}
		res, err := s.submit(msg, senderAddr, sender)
		switch {
		case err == nil:
			addr := ledger.Address(res.Data)
			s.notify(ctx, "created", Event{
				EscrowAddress: addr,
				Sender:        senderAddr,
				RecipientID:   recipientID,
				RecipientHash: hash,
				Amount:        amount,
				ExpiresAt:     expiresAt,
				Nonce:         nonce,
			}, Observer.EscrowCreated)
			return addr, nil
		case errors.ErrDuplicate.Is(err):
			// lost the address race, move on to the next nonce
			s.log.InfoContext(ctx, "escrow address taken, retrying",
				"sender", senderAddr, "nonce", nonce)
			nonce++
		case sigs.ErrStaleCheckpoint.Is(err):
			// resubmitting re-signs against the current height
			s.log.InfoContext(ctx, "stale checkpoint, re-signing",
				"sender", senderAddr, "nonce", nonce)
		default:
			return nil, err
		}
	}
	return nil, errors.Wrapf(errors.ErrState, "gave up after %d attempts", s.maxRetries)
}

// Claim releases the escrowed funds to the recipient wallet.
func (s *Service) Claim(ctx context.Context, recipient crypto.Signer, escrowAddr ledger.Address) error {
	recipientAddr := recipient.PublicKey().Address()
	msg := &escrow.ClaimMsg{EscrowAddress: escrowAddr, Recipient: recipientAddr}
	if _, err := s.submitFresh(ctx, msg, recipientAddr, recipient); err != nil {
		return err
	}

	// the claimed record stays on the ledger, read it back for the event
	esc, err := s.chain.Escrow(escrowAddr)
	if err != nil {
		s.log.ErrorContext(ctx, "claimed escrow not readable", "escrow", escrowAddr, "err", err)
		return nil
	}
	s.notify(ctx, "claimed", Event{
		EscrowAddress: escrowAddr,
		Sender:        esc.Sender,
		RecipientHash: esc.RecipientHash,
		Recipient:     recipientAddr,
		Amount:        *esc.Amount,
		ExpiresAt:     esc.ExpiresAt,
		Nonce:         esc.Nonce,
	}, Observer.EscrowClaimed)
	return nil
}

// Reclaim returns the funds of an expired escrow to its sender.
func (s *Service) Reclaim(ctx context.Context, sender crypto.Signer, escrowAddr ledger.Address) error {
	// the record is deleted on reclaim, capture it first
	esc, err := s.chain.Escrow(escrowAddr)
	if err != nil {
		return err
	}

	msg := &escrow.ReclaimMsg{EscrowAddress: escrowAddr}
	if _, err := s.submitFresh(ctx, msg, sender.PublicKey().Address(), sender); err != nil {
		return err
	}
	s.notify(ctx, "reclaimed", Event{
		EscrowAddress: escrowAddr,
		Sender:        esc.Sender,
		RecipientHash: esc.RecipientHash,
		Amount:        *esc.Amount,
		ExpiresAt:     esc.ExpiresAt,
		Nonce:         esc.Nonce,
	}, Observer.EscrowReclaimed)
	return nil
}

// submit runs one co-signing handshake and submits the result.
func (s *Service) submit(msg ledger.Msg, principal ledger.Address, signer crypto.Signer) (*ledger.DeliverResult, error) {
	auth, err := s.cosigner.Begin(msg, principal)
	if err != nil {
		return nil, err
	}
	if err := auth.SignAsPrincipal(signer); err != nil {
		return nil, err
	}
	tx, err := auth.Tx()
	if err != nil {
		return nil, err
	}
	return s.chain.SubmitTx(tx)
}

// submitFresh submits and retries on a stale checkpoint, rebuilding
// the authorization against the current height each time.
func (s *Service) submitFresh(ctx context.Context, msg ledger.Msg, principal ledger.Address, signer crypto.Signer) (*ledger.DeliverResult, error) {
	var res *ledger.DeliverResult
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		res, err = s.submit(msg, principal, signer)
		if err == nil || !sigs.ErrStaleCheckpoint.Is(err) {
			return res, err
		}
		s.log.InfoContext(ctx, "stale checkpoint, re-signing", "path", msg.Path())
	}
	return nil, err
}

// notify fans an event out to every observer. Observer failures are
// logged and swallowed, the ledger operation already succeeded.
func (s *Service) notify(ctx context.Context, kind string, ev Event, deliver func(Observer, context.Context, Event) error) {
	for _, o := range s.observers {
		if err := deliver(o, ctx, ev); err != nil {
			s.log.ErrorContext(ctx, "observer notification failed",
				"event", kind, "escrow", ev.EscrowAddress, "err", err)
		}
	}
}
