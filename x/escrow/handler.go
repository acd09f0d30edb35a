package escrow

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x"
	"github.com/fymoney/ledger/x/cash"
)

const (
	// maxLifetimeSeconds caps how far in the future an escrow may
	// expire: 30 days.
	maxLifetimeSeconds int64 = 30 * 24 * 60 * 60

	initializeCost int64 = 300
	claimCost      int64 = 0
	reclaimCost    int64 = 0
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, ctrl cash.Controller) {
	bucket := NewBucket()

	r.Handle(pathInitialize, InitializeHandler{auth, bucket, ctrl})
	r.Handle(pathClaim, ClaimHandler{auth, bucket, ctrl})
	r.Handle(pathReclaim, ReclaimHandler{auth, bucket, ctrl})
}

// RegisterMessages declares the message constructor for every path in
// this package with the given decoder registry. Using it instead of
// spelling the paths out keeps decoding and routing in sync.
func RegisterMessages(register func(path string, fn func() ledger.Msg)) {
	register(pathInitialize, func() ledger.Msg { return &InitializeMsg{} })
	register(pathClaim, func() ledger.Msg { return &ClaimMsg{} })
	register(pathReclaim, func() ledger.Msg { return &ReclaimMsg{} })
}

//---- initialize

// InitializeHandler creates an escrow and locks the funds in custody.
type InitializeHandler struct {
	auth   x.Authenticator
	bucket Bucket
	bank   cash.Controller
}

var _ ledger.Handler = InitializeHandler{}

// Check does the validation and sets the cost of the transaction
func (h InitializeHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: initializeCost}, nil
}

// Deliver creates the escrow record and moves the amount from the
// sender's funding account into custody, all applied atomically by the
// surrounding cache wrap.
func (h InitializeHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, now, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	addr := Addr(msg.Sender, msg.RecipientHash, msg.Nonce)
	custody := CustodyAddr(msg.Sender, msg.RecipientHash, msg.Nonce)

	esc := &Escrow{
		Sender:        msg.Sender,
		RecipientHash: msg.RecipientHash,
		Amount:        msg.Amount,
		Custody:       custody,
		CreatedAt:     now,
		ExpiresAt:     msg.ExpiresAt,
		Status:        StatusActive,
		Nonce:         msg.Nonce,
	}
	if err := h.bucket.Save(db, addr, esc); err != nil {
		return nil, err
	}

	if err := h.bank.MoveCoins(db, msg.Sender, custody, *msg.Amount); err != nil {
		return nil, err
	}

	// return the derived address to use in future calls
	return &ledger.DeliverResult{Data: addr}, nil
}

// validate does all common pre-processing between Check and Deliver.
// Every precondition is checked here, before any state write.
func (h InitializeHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*InitializeMsg, ledger.UnixTime, error) {
	var msg InitializeMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, 0, errors.Wrap(err, "load msg")
	}

	// Sender must authorize this
	if !h.auth.HasAddress(ctx, msg.Sender) {
		return nil, 0, errors.ErrUnauthorized
	}

	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, 0, err
	}
	if msg.ExpiresAt <= now {
		return nil, 0, errors.Wrapf(ErrInvalidExpiration, "expires at %s", msg.ExpiresAt)
	}
	if int64(msg.ExpiresAt)-int64(now) > maxLifetimeSeconds {
		return nil, 0, errors.Wrapf(ErrExpirationTooLong, "expires at %s", msg.ExpiresAt)
	}

	// An occupied address is a nonce collision. This is an
	// infrastructure conflict, not a protocol failure, and callers
	// retry it with the next nonce.
	addr := Addr(msg.Sender, msg.RecipientHash, msg.Nonce)
	switch has, err := h.bucket.Has(db, addr); {
	case err != nil:
		return nil, 0, err
	case has:
		return nil, 0, errors.Wrapf(errors.ErrDuplicate, "escrow address %s in use", addr)
	}

	return &msg, now, nil
}

//---- claim

// ClaimHandler releases the custody balance to the recipient wallet.
type ClaimHandler struct {
	auth   x.Authenticator
	bucket Bucket
	bank   cash.Controller
}

var _ ledger.Handler = ClaimHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h ClaimHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: claimCost}, nil
}

// Deliver moves the full custody balance to the recipient, records the
// claiming wallet and closes the custody account. The escrow record is
// kept with a terminal status so a second claim fails deterministically.
func (h ClaimHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if _, err := h.bank.MoveAll(db, esc.Custody, msg.Recipient); err != nil {
		return nil, err
	}

	esc.Recipient = msg.Recipient
	esc.Status = StatusClaimed
	if err := h.bucket.Save(db, msg.EscrowAddress, esc); err != nil {
		return nil, err
	}

	return &ledger.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ClaimHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ClaimMsg, *Escrow, error) {
	var msg ClaimMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	// The claiming wallet must authorize this
	if !h.auth.HasAddress(ctx, msg.Recipient) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "recipient signature missing")
	}

	esc, err := h.bucket.Get(db, msg.EscrowAddress)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status != StatusActive {
		return nil, nil, errors.Wrapf(ErrEscrowNotActive, "status %s", esc.Status)
	}
	if ledger.IsExpired(ctx, esc.ExpiresAt) {
		return nil, nil, errors.Wrapf(ErrEscrowExpired, "expired at %s", esc.ExpiresAt)
	}

	return &msg, esc, nil
}

//---- reclaim

// ReclaimHandler refunds an expired escrow to its sender.
type ReclaimHandler struct {
	auth   x.Authenticator
	bucket Bucket
	bank   cash.Controller
}

var _ ledger.Handler = ReclaimHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h ReclaimHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: reclaimCost}, nil
}

// Deliver refunds the full custody balance to the sender and deletes
// both the custody wallet and the escrow record, making the escrow
// unfetchable afterwards.
func (h ReclaimHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if _, err := h.bank.MoveAll(db, esc.Custody, esc.Sender); err != nil {
		return nil, err
	}
	if err := h.bucket.Delete(db, msg.EscrowAddress); err != nil {
		return nil, err
	}

	return &ledger.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ReclaimHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ReclaimMsg, *Escrow, error) {
	var msg ReclaimMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	esc, err := h.bucket.Get(db, msg.EscrowAddress)
	if err != nil {
		return nil, nil, err
	}

	// Only the recorded sender may reclaim, regardless of expiry state.
	if !h.auth.HasAddress(ctx, esc.Sender) {
		return nil, nil, errors.Wrap(ErrUnauthorizedSender, "sender signature missing")
	}
	if esc.Status != StatusActive {
		return nil, nil, errors.Wrapf(ErrEscrowNotActive, "status %s", esc.Status)
	}
	if !ledger.IsExpired(ctx, esc.ExpiresAt) {
		return nil, nil, errors.Wrapf(ErrEscrowNotExpired, "expires at %s", esc.ExpiresAt)
	}

	return &msg, esc, nil
}
