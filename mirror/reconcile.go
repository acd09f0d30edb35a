package mirror

import (
	"context"
	"log/slog"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/client"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x/escrow"
)

// ChainReader is the slice of the ledger the reconciler needs.
// *app.Ledger satisfies it.
type ChainReader interface {
	Escrow(addr ledger.Address) (*escrow.Escrow, error)
}

// Reconciler repairs drift between the mirror and the ledger. Drift
// happens when an observer notification is lost, for example because
// the process died between the ledger write and the mirror write.
type Reconciler struct {
	store *Store
	chain ChainReader
	obs   client.Observer
	log   *slog.Logger
}

// NewReconciler creates a reconciler. Repaired rows are replayed to
// the observer as lifecycle events, which recovers notifications that
// were lost together with the mirror write. A nil observer disables
// the replay, a nil logger falls back to the process default.
func NewReconciler(store *Store, chain ChainReader, obs client.Observer, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, chain: chain, obs: obs, log: log}
}

// Reconcile checks every transfer the mirror believes is active
// against the ledger and repairs rows that fell behind. It returns the
// number of repaired rows. Ledger read failures for single rows are
// logged and skipped, the next run picks them up again.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	active, err := r.store.ListActive(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list active transfers")
	}

	repaired := 0
	for _, t := range active {
		esc, err := r.chain.Escrow(t.EscrowAddress)
		switch {
		case errors.ErrNotFound.Is(err):
			// reclaimed escrows are deleted from the ledger
			if err := r.store.mark(ctx, t.EscrowAddress, statusReclaimed, nil); err != nil {
				return repaired, errors.Wrap(err, "mark reclaimed")
			}
			r.log.InfoContext(ctx, "repaired transfer", "escrow", t.EscrowAddress, "status", statusReclaimed)
			r.replay(ctx, statusReclaimed, event(t), client.Observer.EscrowReclaimed)
			repaired++
		case err != nil:
			r.log.ErrorContext(ctx, "ledger read failed", "escrow", t.EscrowAddress, "err", err)
		case esc.Status == escrow.StatusClaimed:
			if err := r.store.mark(ctx, t.EscrowAddress, statusClaimed, esc.Recipient); err != nil {
				return repaired, errors.Wrap(err, "mark claimed")
			}
			r.log.InfoContext(ctx, "repaired transfer", "escrow", t.EscrowAddress, "status", statusClaimed)
			ev := event(t)
			ev.Recipient = esc.Recipient
			r.replay(ctx, statusClaimed, ev, client.Observer.EscrowClaimed)
			repaired++
		}
	}
	return repaired, nil
}

func (r *Reconciler) replay(ctx context.Context, kind string, ev client.Event, deliver func(client.Observer, context.Context, client.Event) error) {
	if r.obs == nil {
		return
	}
	if err := deliver(r.obs, ctx, ev); err != nil {
		r.log.ErrorContext(ctx, "event replay failed", "event", kind, "escrow", ev.EscrowAddress, "err", err)
	}
}

func event(t *Transfer) client.Event {
	return client.Event{
		EscrowAddress: t.EscrowAddress,
		Sender:        t.Sender,
		RecipientID:   t.RecipientID,
		Amount:        t.Amount,
		ExpiresAt:     t.ExpiresAt,
		Nonce:         t.Nonce,
	}
}
