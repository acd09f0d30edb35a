/*
Package mirror keeps a queryable off-ledger copy of escrow transfer
statuses in SQLite. The ledger stays authoritative. The mirror exists
so user facing queries do not need ledger access, and a reconciler
repairs any drift between the two.
*/
package mirror

import (
	"context"
	"database/sql"
	"encoding/hex"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/client"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transfers (
	id             TEXT PRIMARY KEY,
	escrow_address TEXT NOT NULL UNIQUE,
	sender         TEXT NOT NULL,
	recipient_id   TEXT NOT NULL,
	recipient      TEXT NOT NULL DEFAULT '',
	amount         INTEGER NOT NULL,
	ticker         TEXT NOT NULL,
	status         TEXT NOT NULL,
	expires_at     INTEGER NOT NULL,
	nonce          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transfers_recipient_id ON transfers (recipient_id);
CREATE INDEX IF NOT EXISTS transfers_sender ON transfers (sender);
`

// Transfer is one mirrored escrow row.
type Transfer struct {
	ID            string
	EscrowAddress ledger.Address
	Sender        ledger.Address
	// RecipientID is the off-chain identifier. The mirror may store it
	// in clear, unlike the ledger.
	RecipientID string
	// Recipient is set once the transfer is claimed.
	Recipient ledger.Address
	Amount    coin.Coin
	Status    string
	ExpiresAt ledger.UnixTime
	Nonce     uint64
}

// Store is the SQLite backed status mirror. It implements
// client.Observer so it can be fed directly from the transfer service.
type Store struct {
	db *sql.DB
}

var _ client.Observer = (*Store)(nil)

// Open creates or opens a mirror database. Use ":memory:" for an
// ephemeral one.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EscrowCreated inserts a new active row. Replayed events are ignored,
// the escrow address is unique per transfer.
func (s *Store) EscrowCreated(ctx context.Context, ev client.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers (id, escrow_address, sender, recipient_id, amount, ticker, status, expires_at, nonce)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (escrow_address) DO NOTHING`,
		uuid.NewString(), ev.EscrowAddress.String(), ev.Sender.String(), ev.RecipientID,
		ev.Amount.Amount, ev.Amount.Ticker, statusActive, int64(ev.ExpiresAt), ev.Nonce)
	return errors.Wrap(err, "insert transfer")
}

// EscrowClaimed marks the row claimed and records the claiming wallet.
func (s *Store) EscrowClaimed(ctx context.Context, ev client.Event) error {
	return s.mark(ctx, ev.EscrowAddress, statusClaimed, ev.Recipient)
}

// EscrowReclaimed marks the row reclaimed.
func (s *Store) EscrowReclaimed(ctx context.Context, ev client.Event) error {
	return s.mark(ctx, ev.EscrowAddress, statusReclaimed, nil)
}

const (
	statusActive    = "active"
	statusClaimed   = "claimed"
	statusReclaimed = "reclaimed"
)

func (s *Store) mark(ctx context.Context, addr ledger.Address, status string, recipient ledger.Address) error {
	var rcpt string
	if recipient != nil {
		rcpt = recipient.String()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transfers SET status = ?, recipient = ? WHERE escrow_address = ?`,
		status, rcpt, addr.String())
	if err != nil {
		return errors.Wrap(err, "update transfer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "transfer %s", addr)
	}
	return nil
}

// Get returns the mirrored transfer for an escrow address.
func (s *Store) Get(ctx context.Context, addr ledger.Address) (*Transfer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, escrow_address, sender, recipient_id, recipient, amount, ticker, status, expires_at, nonce
		FROM transfers WHERE escrow_address = ?`, addr.String())
	return scanTransfer(row)
}

// ListActive returns all transfers the mirror believes are still
// claimable. This is the reconciler's work queue.
func (s *Store) ListActive(ctx context.Context) ([]*Transfer, error) {
	return s.list(ctx, `
		SELECT id, escrow_address, sender, recipient_id, recipient, amount, ticker, status, expires_at, nonce
		FROM transfers WHERE status = ? ORDER BY expires_at`, statusActive)
}

// ListByRecipientID returns all transfers addressed to an off-chain
// identifier, any status. The identifier is matched verbatim.
func (s *Store) ListByRecipientID(ctx context.Context, recipientID string) ([]*Transfer, error) {
	return s.list(ctx, `
		SELECT id, escrow_address, sender, recipient_id, recipient, amount, ticker, status, expires_at, nonce
		FROM transfers WHERE recipient_id = ? ORDER BY expires_at`, recipientID)
}

// ListBySender returns all transfers created by a sender wallet.
func (s *Store) ListBySender(ctx context.Context, sender ledger.Address) ([]*Transfer, error) {
	return s.list(ctx, `
		SELECT id, escrow_address, sender, recipient_id, recipient, amount, ticker, status, expires_at, nonce
		FROM transfers WHERE sender = ? ORDER BY expires_at`, sender.String())
}

func (s *Store) list(ctx context.Context, query string, arg interface{}) ([]*Transfer, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "query transfers")
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, errors.Wrap(rows.Err(), "iterate transfers")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransfer(row scanner) (*Transfer, error) {
	var (
		t         Transfer
		addr      string
		sender    string
		recipient string
		expiresAt int64
	)
	err := row.Scan(&t.ID, &addr, &sender, &t.RecipientID, &recipient,
		&t.Amount.Amount, &t.Amount.Ticker, &t.Status, &expiresAt, &t.Nonce)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Wrap(errors.ErrNotFound, "transfer")
	case err != nil:
		return nil, errors.Wrap(err, "scan transfer")
	}

	if t.EscrowAddress, err = parseAddress(addr); err != nil {
		return nil, errors.Wrap(err, "escrow address")
	}
	if t.Sender, err = parseAddress(sender); err != nil {
		return nil, errors.Wrap(err, "sender")
	}
	if recipient != "" {
		if t.Recipient, err = parseAddress(recipient); err != nil {
			return nil, errors.Wrap(err, "recipient")
		}
	}
	t.ExpiresAt = ledger.UnixTime(expiresAt)
	return &t, nil
}

func parseAddress(enc string) (ledger.Address, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	addr := ledger.Address(raw)
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
