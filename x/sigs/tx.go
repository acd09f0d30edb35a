package sigs

import (
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/errors"
	"github.com/gogo/protobuf/proto"
)

// SignedTx represents a transaction that carries signatures bound to a
// checkpoint, which can be verified by the sigs.Decorator.
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	//
	// Helpful to store original, unparsed bytes here, just in case.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature

	// GetCheckpoint returns the ledger height the signatures were
	// bound to. It is the freshness token of the transaction.
	GetCheckpoint() int64
}

// StdSignature is one signer's authorization of a transaction. All
// signatures of a transaction share the checkpoint carried by the
// transaction itself.
type StdSignature struct {
	Pubkey    *crypto.PublicKey `protobuf:"bytes,1,opt,name=pubkey,proto3" json:"pubkey,omitempty"`
	Signature *crypto.Signature `protobuf:"bytes,2,opt,name=signature,proto3" json:"signature,omitempty"`
}

type stdSignatureProto StdSignature

func (p *stdSignatureProto) Reset()         { *p = stdSignatureProto{} }
func (p *stdSignatureProto) ProtoMessage()  {}
func (p *stdSignatureProto) String() string { return proto.CompactTextString(p) }

func (s *StdSignature) Marshal() ([]byte, error) {
	return proto.Marshal((*stdSignatureProto)(s))
}

func (s *StdSignature) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*stdSignatureProto)(s))
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if err := s.Pubkey.Validate(); err != nil {
		return err
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}
