package cash

import (
	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/orm"
	"github.com/gogo/protobuf/proto"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set is the value persisted per account. It keeps all token balances
// of a single address, sorted by ticker.
type Set struct {
	Coins []*coin.Coin `protobuf:"bytes,1,rep,name=coins,proto3" json:"coins,omitempty"`
}

// setProto carries the proto.Message methods so that gogo serializes
// the struct by reflection instead of calling Set.Marshal again.
type setProto Set

func (p *setProto) Reset()         { *p = setProto{} }
func (p *setProto) ProtoMessage()  {}
func (p *setProto) String() string { return proto.CompactTextString(p) }

func (s *Set) Marshal() ([]byte, error) {
	return proto.Marshal((*setProto)(s))
}

func (s *Set) Unmarshal(bz []byte) error {
	return proto.Unmarshal(bz, (*setProto)(s))
}

// Validate requires that all coins are sorted, positive and unique.
func (s *Set) Validate() error {
	return coin.Coins(s.Coins).Validate()
}

// Copy makes a new set with the same coins
func (s *Set) Copy() *Set {
	return &Set{
		Coins: coin.Coins(s.Coins).Clone(),
	}
}

// Wallet combines a balance set with the address owning it. It is the
// object the rest of the code passes around.
type Wallet struct {
	Address ledger.Address
	set     *Set
}

// NewWallet creates an empty wallet with this address
func NewWallet(addr ledger.Address) *Wallet {
	return &Wallet{Address: addr, set: new(Set)}
}

// Coins returns the coins stored in the wallet
func (w *Wallet) Coins() coin.Coins {
	return coin.Coins(w.set.Coins)
}

// IsEmpty returns true if the wallet holds no balance at all.
func (w *Wallet) IsEmpty() bool {
	return len(w.set.Coins) == 0
}

// Add modifies the wallet to add Coin c
func (w *Wallet) Add(c coin.Coin) error {
	cs, err := w.Coins().Add(c)
	if err != nil {
		return err
	}
	w.set.Coins = cs
	return nil
}

// Subtract modifies the wallet to remove Coin c
func (w *Wallet) Subtract(c coin.Coin) error {
	return w.Add(c.Negative())
}

// Bucket is a type-safe wrapper around orm.Bucket
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName),
	}
}

// Get loads the wallet for the given address, or returns nil if the
// account was never funded.
func (b Bucket) Get(db ledger.ReadOnlyKVStore, addr ledger.Address) (*Wallet, error) {
	var set Set
	switch err := b.One(db, addr, &set); {
	case err == nil:
		return &Wallet{Address: addr, set: &set}, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// GetOrCreate loads the wallet, or returns a fresh empty one that was
// not yet persisted.
func (b Bucket) GetOrCreate(db ledger.ReadOnlyKVStore, addr ledger.Address) (*Wallet, error) {
	wallet, err := b.Get(db, addr)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = NewWallet(addr)
	}
	return wallet, nil
}

// Save persists the wallet. An emptied wallet is removed from the
// store instead, so that drained one-off accounts leave no residue.
func (b Bucket) Save(db ledger.KVStore, w *Wallet) error {
	if err := w.Address.Validate(); err != nil {
		return errors.Wrap(err, "wallet address")
	}
	if w.IsEmpty() {
		has, err := b.Has(db, w.Address)
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
		return b.Delete(db, w.Address)
	}
	return b.Bucket.Save(db, w.Address, w.set)
}
