package escrow

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/gogo/protobuf/proto"
)

const (
	pathInitialize = "escrow/initialize"
	pathClaim      = "escrow/claim"
	pathReclaim    = "escrow/reclaim"
)

// InitializeMsg locks an amount for a recipient identified only by the
// hash of an off-chain identifier.
type InitializeMsg struct {
	Sender        ledger.Address  `protobuf:"bytes,1,opt,name=sender,proto3" json:"sender,omitempty"`
	RecipientHash []byte          `protobuf:"bytes,2,opt,name=recipient_hash,json=recipientHash,proto3" json:"recipient_hash,omitempty"`
	Amount        *coin.Coin      `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
	ExpiresAt     ledger.UnixTime `protobuf:"varint,4,opt,name=expires_at,json=expiresAt,proto3" json:"expires_at,omitempty"`
	Nonce         uint64          `protobuf:"varint,5,opt,name=nonce,proto3" json:"nonce,omitempty"`
}

type initializeMsgProto InitializeMsg

func (p *initializeMsgProto) Reset()         { *p = initializeMsgProto{} }
func (p *initializeMsgProto) ProtoMessage()  {}
func (p *initializeMsgProto) String() string { return proto.CompactTextString(p) }

var _ ledger.Msg = (*InitializeMsg)(nil)

func (m *InitializeMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*initializeMsgProto)(m))
}

func (m *InitializeMsg) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*initializeMsgProto)(m))
}

// Path returns the routing path for this message.
func (m *InitializeMsg) Path() string {
	return pathInitialize
}

// Validate ensures the message is sane. Expiration is validated
// against the block time by the handler, not here.
func (m *InitializeMsg) Validate() error {
	if err := m.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := validateRecipientHash(m.RecipientHash); err != nil {
		return err
	}
	if m.Amount == nil {
		return errors.Wrap(ErrInvalidAmount, "no amount")
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrap(ErrInvalidAmount, "must be positive")
	}
	if m.ExpiresAt == 0 {
		return errors.Wrap(ErrInvalidExpiration, "no expiration")
	}
	return nil
}

// ClaimMsg releases the custody balance of an escrow to the recipient
// wallet signing the transaction.
type ClaimMsg struct {
	// EscrowAddress locates the escrow record.
	EscrowAddress ledger.Address `protobuf:"bytes,1,opt,name=escrow_address,json=escrowAddress,proto3" json:"escrow_address,omitempty"`
	// Recipient is the wallet receiving the funds. It must have signed
	// the transaction.
	Recipient ledger.Address `protobuf:"bytes,2,opt,name=recipient,proto3" json:"recipient,omitempty"`
}

type claimMsgProto ClaimMsg

func (p *claimMsgProto) Reset()         { *p = claimMsgProto{} }
func (p *claimMsgProto) ProtoMessage()  {}
func (p *claimMsgProto) String() string { return proto.CompactTextString(p) }

var _ ledger.Msg = (*ClaimMsg)(nil)

func (m *ClaimMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*claimMsgProto)(m))
}

func (m *ClaimMsg) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*claimMsgProto)(m))
}

// Path returns the routing path for this message.
func (m *ClaimMsg) Path() string {
	return pathClaim
}

// Validate ensures the message is sane.
func (m *ClaimMsg) Validate() error {
	if err := m.EscrowAddress.Validate(); err != nil {
		return errors.Wrap(err, "escrow address")
	}
	if err := m.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	return nil
}

// ReclaimMsg returns the custody balance of an expired escrow to the
// sender that created it.
type ReclaimMsg struct {
	// EscrowAddress locates the escrow record.
	EscrowAddress ledger.Address `protobuf:"bytes,1,opt,name=escrow_address,json=escrowAddress,proto3" json:"escrow_address,omitempty"`
}

type reclaimMsgProto ReclaimMsg

func (p *reclaimMsgProto) Reset()         { *p = reclaimMsgProto{} }
func (p *reclaimMsgProto) ProtoMessage()  {}
func (p *reclaimMsgProto) String() string { return proto.CompactTextString(p) }

var _ ledger.Msg = (*ReclaimMsg)(nil)

func (m *ReclaimMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*reclaimMsgProto)(m))
}

func (m *ReclaimMsg) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*reclaimMsgProto)(m))
}

// Path returns the routing path for this message.
func (m *ReclaimMsg) Path() string {
	return pathReclaim
}

// Validate ensures the message is sane.
func (m *ReclaimMsg) Validate() error {
	if err := m.EscrowAddress.Validate(); err != nil {
		return errors.Wrap(err, "escrow address")
	}
	return nil
}
