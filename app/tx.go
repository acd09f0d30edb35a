package app

import (
	"sync"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x/sigs"
	"github.com/fymoney/ledger/x/txfee"
	"github.com/gogo/protobuf/proto"
)

// StdTx is the transaction envelope accepted by the ledger. It carries
// one message, the fee declaration, the checkpoint the signatures are
// bound to, and the signatures themselves.
type StdTx struct {
	// MsgPath routes the message and selects the decoder for MsgBytes.
	MsgPath string `protobuf:"bytes,1,opt,name=msg_path,json=msgPath,proto3" json:"msg_path,omitempty"`
	// MsgBytes is the serialized message. Signatures cover these exact
	// bytes, so the signed and the executed message cannot diverge.
	MsgBytes []byte `protobuf:"bytes,2,opt,name=msg_bytes,json=msgBytes,proto3" json:"msg_bytes,omitempty"`
	// Fee declares the sponsor paying for this transaction. Optional.
	Fee *txfee.FeeInfo `protobuf:"bytes,3,opt,name=fee,proto3" json:"fee,omitempty"`
	// Checkpoint is the ledger height the signatures were bound to.
	Checkpoint int64 `protobuf:"varint,4,opt,name=checkpoint,proto3" json:"checkpoint,omitempty"`
	// Signatures must include every declared required signer.
	Signatures []*sigs.StdSignature `protobuf:"bytes,5,rep,name=signatures,proto3" json:"signatures,omitempty"`

	// msg caches the decoded message.
	msg ledger.Msg
}

type stdTxProto struct {
	MsgPath    string               `protobuf:"bytes,1,opt,name=msg_path,json=msgPath,proto3"`
	MsgBytes   []byte               `protobuf:"bytes,2,opt,name=msg_bytes,json=msgBytes,proto3"`
	Fee        *txfee.FeeInfo       `protobuf:"bytes,3,opt,name=fee,proto3"`
	Checkpoint int64                `protobuf:"varint,4,opt,name=checkpoint,proto3"`
	Signatures []*sigs.StdSignature `protobuf:"bytes,5,rep,name=signatures,proto3"`
}

func (p *stdTxProto) Reset()         { *p = stdTxProto{} }
func (p *stdTxProto) ProtoMessage()  {}
func (p *stdTxProto) String() string { return proto.CompactTextString(p) }

var _ ledger.Tx = (*StdTx)(nil)
var _ sigs.SignedTx = (*StdTx)(nil)
var _ txfee.FeeTx = (*StdTx)(nil)

// NewStdTx wraps a message into an unsigned transaction bound to the
// given checkpoint.
func NewStdTx(msg ledger.Msg, checkpoint int64) (*StdTx, error) {
	bz, err := msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal msg")
	}
	return &StdTx{
		MsgPath:    msg.Path(),
		MsgBytes:   bz,
		Checkpoint: checkpoint,
		msg:        msg,
	}, nil
}

// GetMsg returns the message of this transaction, decoding MsgBytes if
// needed. Decoding requires the message type to be registered.
func (tx *StdTx) GetMsg() (ledger.Msg, error) {
	if tx.msg != nil {
		return tx.msg, nil
	}
	msg, err := decodeMsg(tx.MsgPath, tx.MsgBytes)
	if err != nil {
		return nil, err
	}
	tx.msg = msg
	return msg, nil
}

// GetSignBytes returns the canonical bytes the signatures cover: the
// serialized envelope with the signatures stripped. The checkpoint and
// fee are covered, so neither can be swapped after signing.
func (tx *StdTx) GetSignBytes() ([]byte, error) {
	stripped := stdTxProto{
		MsgPath:    tx.MsgPath,
		MsgBytes:   tx.MsgBytes,
		Fee:        tx.Fee,
		Checkpoint: tx.Checkpoint,
	}
	return proto.Marshal(&stripped)
}

// GetSignatures returns the signature of signers who signed the Msg.
func (tx *StdTx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetCheckpoint returns the freshness token of this transaction.
func (tx *StdTx) GetCheckpoint() int64 {
	return tx.Checkpoint
}

// GetFeeInfo returns the fee declaration, or nil for a free ride.
func (tx *StdTx) GetFeeInfo() *txfee.FeeInfo {
	return tx.Fee
}

func (tx *StdTx) Marshal() ([]byte, error) {
	return proto.Marshal(&stdTxProto{
		MsgPath:    tx.MsgPath,
		MsgBytes:   tx.MsgBytes,
		Fee:        tx.Fee,
		Checkpoint: tx.Checkpoint,
		Signatures: tx.Signatures,
	})
}

func (tx *StdTx) Unmarshal(bz []byte) error {
	var p stdTxProto
	if err := proto.Unmarshal(bz, &p); err != nil {
		return err
	}
	*tx = StdTx{
		MsgPath:    p.MsgPath,
		MsgBytes:   p.MsgBytes,
		Fee:        p.Fee,
		Checkpoint: p.Checkpoint,
		Signatures: p.Signatures,
	}
	return nil
}

//------------------ message decoder registry ---------------

var (
	msgMu    sync.RWMutex
	msgTypes = make(map[string]func() ledger.Msg)
)

// RegisterMsg declares the constructor for a message path so that
// transactions received in serialized form can be decoded. Calling it
// twice for one path panics.
func RegisterMsg(path string, fn func() ledger.Msg) {
	msgMu.Lock()
	defer msgMu.Unlock()
	if _, ok := msgTypes[path]; ok {
		panic("message path already registered: " + path)
	}
	msgTypes[path] = fn
}

func decodeMsg(path string, bz []byte) (ledger.Msg, error) {
	msgMu.RLock()
	fn, ok := msgTypes[path]
	msgMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no decoder for %q", path)
	}
	msg := fn()
	if err := msg.Unmarshal(bz); err != nil {
		return nil, errors.Wrapf(err, "decode %q", path)
	}
	return msg, nil
}
