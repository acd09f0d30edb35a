package store

import "github.com/fymoney/ledger"

// Move references for all storage types into this package
// for shorter names everywhere.

type ReadOnlyKVStore = ledger.ReadOnlyKVStore
type KVStore = ledger.KVStore
type SetDeleter = ledger.SetDeleter
type Batch = ledger.Batch
type CacheableKVStore = ledger.CacheableKVStore
type KVCacheWrap = ledger.KVCacheWrap
