package escrow

import (
	"encoding/binary"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/orm"
	"github.com/gogo/protobuf/proto"
)

// BucketName is where we store the escrows
const BucketName = "esc"

// Status tracks the escrow lifecycle. Transitions are monotonic, a
// terminal status is never left.
type Status int32

const (
	StatusInvalid   Status = 0
	StatusActive    Status = 1
	StatusClaimed   Status = 2
	StatusReclaimed Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClaimed:
		return "claimed"
	case StatusReclaimed:
		return "reclaimed"
	default:
		return "invalid"
	}
}

// Escrow is one deposit-until-claimed transfer. It is stored under its
// derived address, see Condition.
type Escrow struct {
	// Sender funded the escrow and may reclaim it after expiry.
	Sender ledger.Address `protobuf:"bytes,1,opt,name=sender,proto3" json:"sender,omitempty"`
	// RecipientHash identifies the recipient without exposing the
	// off-chain identifier on the ledger.
	RecipientHash []byte `protobuf:"bytes,2,opt,name=recipient_hash,json=recipientHash,proto3" json:"recipient_hash,omitempty"`
	// Recipient is nil until the escrow is claimed and then set exactly
	// once to the claiming wallet.
	Recipient ledger.Address `protobuf:"bytes,3,opt,name=recipient,proto3" json:"recipient,omitempty"`
	// Amount locked at creation. The same amount leaves custody on the
	// terminal transition, never a part of it.
	Amount *coin.Coin `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount,omitempty"`
	// Custody is the wallet holding the locked balance.
	Custody   ledger.Address  `protobuf:"bytes,5,opt,name=custody,proto3" json:"custody,omitempty"`
	CreatedAt ledger.UnixTime `protobuf:"varint,6,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
	ExpiresAt ledger.UnixTime `protobuf:"varint,7,opt,name=expires_at,json=expiresAt,proto3" json:"expires_at,omitempty"`
	Status    Status          `protobuf:"varint,8,opt,name=status,proto3" json:"status,omitempty"`
	// Nonce disambiguates concurrent escrows for the same
	// (sender, recipient hash) pair and is part of the address.
	Nonce uint64 `protobuf:"varint,9,opt,name=nonce,proto3" json:"nonce,omitempty"`
}

// escrowProto carries the proto.Message methods so that gogo
// serializes by reflection instead of recursing into Escrow.Marshal.
type escrowProto Escrow

func (p *escrowProto) Reset()         { *p = escrowProto{} }
func (p *escrowProto) ProtoMessage()  {}
func (p *escrowProto) String() string { return proto.CompactTextString(p) }

func (e *Escrow) Marshal() ([]byte, error) {
	return proto.Marshal((*escrowProto)(e))
}

func (e *Escrow) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*escrowProto)(e))
}

var _ orm.Model = (*Escrow)(nil)

// Validate ensures the escrow is consistent regardless of status.
func (e *Escrow) Validate() error {
	if err := e.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := validateRecipientHash(e.RecipientHash); err != nil {
		return err
	}
	if e.Amount == nil {
		return errors.Wrap(errors.ErrEmpty, "amount")
	}
	if err := e.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !e.Amount.IsPositive() {
		return errors.Wrap(ErrInvalidAmount, "must be positive")
	}
	if err := e.Custody.Validate(); err != nil {
		return errors.Wrap(err, "custody")
	}
	if e.CreatedAt == 0 {
		return errors.Wrap(errors.ErrEmpty, "created at")
	}
	if e.ExpiresAt <= e.CreatedAt {
		return errors.Wrap(ErrInvalidExpiration, "expires before creation")
	}
	if int64(e.ExpiresAt)-int64(e.CreatedAt) > maxLifetimeSeconds {
		return errors.Wrap(ErrExpirationTooLong, "escrow lifetime")
	}
	switch e.Status {
	case StatusActive:
		if e.Recipient != nil {
			return errors.Wrap(errors.ErrState, "active escrow with recipient")
		}
	case StatusClaimed:
		if err := e.Recipient.Validate(); err != nil {
			return errors.Wrap(err, "recipient")
		}
	case StatusReclaimed:
		// reclaimed escrows are deleted, not stored
		return errors.Wrap(errors.ErrState, "reclaimed escrow must not be persisted")
	default:
		return errors.Wrapf(errors.ErrState, "invalid status: %d", e.Status)
	}
	return nil
}

// Seed is the raw input of the deterministic address derivation. Any
// party can recompute it from public inputs without a lookup table.
func Seed(sender ledger.Address, recipientHash []byte, nonce uint64) []byte {
	seed := make([]byte, 0, len(sender)+len(recipientHash)+8)
	seed = append(seed, sender...)
	seed = append(seed, recipientHash...)
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return append(seed, n[:]...)
}

// Condition returns the condition owning the escrow record.
func Condition(sender ledger.Address, recipientHash []byte, nonce uint64) ledger.Condition {
	return ledger.NewCondition("escrow", "seed", Seed(sender, recipientHash, nonce))
}

// Addr derives the escrow address, which is also its bucket key.
func Addr(sender ledger.Address, recipientHash []byte, nonce uint64) ledger.Address {
	return Condition(sender, recipientHash, nonce).Address()
}

// CustodyCondition returns the condition owning the custody wallet.
// It differs from the escrow condition so the record and the balance
// live at distinct addresses.
func CustodyCondition(sender ledger.Address, recipientHash []byte, nonce uint64) ledger.Condition {
	return ledger.NewCondition("escrow", "custody", Seed(sender, recipientHash, nonce))
}

// CustodyAddr derives the custody wallet address.
func CustodyAddr(sender ledger.Address, recipientHash []byte, nonce uint64) ledger.Address {
	return CustodyCondition(sender, recipientHash, nonce).Address()
}

// Bucket is a type-safe wrapper around orm.Bucket, keyed by the
// derived escrow address.
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes an escrow bucket with the default name.
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName),
	}
}

// Get loads the escrow stored under the given address.
func (b Bucket) Get(db ledger.ReadOnlyKVStore, addr ledger.Address) (*Escrow, error) {
	var e Escrow
	if err := b.One(db, addr, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
