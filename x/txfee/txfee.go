/*
Package txfee charges a flat network fee per transaction.

The fee is debited from the declared payer, in the sponsored flow the
sponsor, into a collector account. The payer must have signed the
transaction, but paying the fee grants no authority over the message:
fund movement is authorized by the handlers against the principal's
signature only. This is what lets a sponsor pay for a transfer it
cannot control.
*/
package txfee

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x"
	"github.com/fymoney/ledger/x/cash"
	"github.com/gogo/protobuf/proto"
)

// FeeInfo declares who pays the transaction fee and how much.
type FeeInfo struct {
	Payer ledger.Address `protobuf:"bytes,1,opt,name=payer,proto3" json:"payer,omitempty"`
	Fee   *coin.Coin     `protobuf:"bytes,2,opt,name=fee,proto3" json:"fee,omitempty"`
}

type feeInfoProto FeeInfo

func (p *feeInfoProto) Reset()         { *p = feeInfoProto{} }
func (p *feeInfoProto) ProtoMessage()  {}
func (p *feeInfoProto) String() string { return proto.CompactTextString(p) }

func (f *FeeInfo) Marshal() ([]byte, error) {
	return proto.Marshal((*feeInfoProto)(f))
}

func (f *FeeInfo) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*feeInfoProto)(f))
}

// Validate ensures the fee declaration is complete.
func (f *FeeInfo) Validate() error {
	if err := f.Payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	if f.Fee == nil {
		return errors.Wrap(errors.ErrAmount, "no fee")
	}
	if err := f.Fee.Validate(); err != nil {
		return errors.Wrap(err, "fee")
	}
	return nil
}

// FeeTx is implemented by transactions that declare a fee payer.
type FeeTx interface {
	GetFeeInfo() *FeeInfo
}

// Decorator moves the declared fee from the payer to the collector
// before executing the transaction.
type Decorator struct {
	auth      x.Authenticator
	bank      cash.CoinMover
	collector ledger.Address
	minFee    coin.Coin
}

var _ ledger.Decorator = Decorator{}

// NewDecorator returns a fee middleware. With a zero minFee,
// transactions without a fee declaration pass through for free.
func NewDecorator(auth x.Authenticator, bank cash.CoinMover, collector ledger.Address, minFee coin.Coin) Decorator {
	return Decorator{
		auth:      auth,
		bank:      bank,
		collector: collector,
		minFee:    minFee,
	}
}

// Check charges the fee before calling down the stack. Charging in the
// check phase keeps spam out of the mempool.
func (d Decorator) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	fee, err := d.charge(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.GasPayment += fee
	return res, nil
}

// Deliver charges the fee before calling down the stack.
func (d Decorator) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	if _, err := d.charge(ctx, db, tx); err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

// charge validates the fee declaration and moves the fee to the
// collector. It returns the charged amount in base units.
func (d Decorator) charge(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (int64, error) {
	var info *FeeInfo
	if ftx, ok := tx.(FeeTx); ok {
		info = ftx.GetFeeInfo()
	}

	if info == nil || info.Fee == nil || info.Fee.IsZero() {
		if d.minFee.IsZero() {
			return 0, nil
		}
		return 0, errors.Wrap(errors.ErrAmount, "fee required")
	}

	if err := info.Validate(); err != nil {
		return 0, err
	}
	if !info.Fee.IsGTE(d.minFee) {
		return 0, errors.Wrapf(errors.ErrAmount, "fee below minimum %v", &d.minFee)
	}

	// Paying a fee requires the payer's signature. It grants nothing
	// beyond that.
	if !d.auth.HasAddress(ctx, info.Payer) {
		return 0, errors.Wrap(errors.ErrUnauthorized, "fee payer must sign")
	}

	if err := d.bank.MoveCoins(db, info.Payer, d.collector, *info.Fee); err != nil {
		return 0, errors.Wrap(err, "charge fee")
	}
	return info.Fee.Amount, nil
}
