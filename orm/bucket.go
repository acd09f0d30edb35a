/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary index (which may be composite),
and may possess secondary indexes.
* It may possess one or more secondary indexes (1:1 or 1:N)
* Easy queries for one and iteration over indexes
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
)

const bucketNameLength = `^[a-z_]{3,10}$`

var isBucketName = regexp.MustCompile(bucketNameLength).MatchString

// Model is implemented by any entity that can be stored using a Bucket.
type Model interface {
	ledger.Persistent
	Validate() error
}

// Bucket is a generic holder that stores data as well
// as references to secondary indexes and sequences.
//
// This is a generic building block that should generally
// be embedded in a custom struct to provide associated
// data and easier access.
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket creates a bucket to store data under a given named prefix.
// The name must be a short lowercase string as it becomes part of every
// database key this bucket writes.
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of the bucket
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// One queries the database for a single model instance. Lookup is done
// by the primary key. The result is loaded into the given destination
// model. This method returns ErrNotFound if the entity does not exist in
// the database.
func (b Bucket) One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return err
	}
	if bz == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(bz); err != nil {
		return errors.Wrapf(err, "parsing %T", dest)
	}
	return nil
}

// Has returns true if an entity is stored under the given primary key.
func (b Bucket) Has(db ledger.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Save validates and writes the given model under the given primary key.
func (b Bucket) Save(db ledger.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	bz, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(err, "serializing %T", m)
	}
	return db.Set(b.DBKey(key), bz)
}

// Delete removes an entity with the given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (b Bucket) Delete(db ledger.KVStore, key []byte) error {
	exists, err := b.Has(db, key)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(errors.ErrNotFound, "bucket %q key %X", b.name, key)
	}
	return db.Delete(b.DBKey(key))
}
