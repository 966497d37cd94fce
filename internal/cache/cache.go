// Package cache provides an in-process decode-result cache keyed by the
// content hash of a lockfile, so repeated audits of an unchanged
// bun.lockb within one process (e.g. a --watch loop) skip the decode
// pass entirely. It is deliberately not network-backed: nothing about a
// local lockfile audit should leave the machine, so a Redis-style
// remote cache is out of scope.
package cache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lockscan/bunlock"
)

// Cache holds decoded lockfiles in memory, keyed by a content hash of
// the source bytes.
type Cache struct {
	rc *ristretto.Cache
}

// New builds a Cache sized for a modest number of lockfiles in flight
// (a --watch process typically has exactly one).
func New() (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 26, // 64 MiB of serialized entries
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{rc: rc}, nil
}

// entry is what actually gets stored, msgpack-serialized so its cost
// (in bytes) is known to ristretto's admission policy.
type entry struct {
	Lockfile *bunlock.Lockfile
	Warnings []bunlock.Warning
}

// Key hashes the raw lockfile bytes with xxhash64, the same fast
// non-cryptographic hash used for the decoder's own name-hash
// verification (see hash.go in the root package).
func Key(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Get returns a previously cached decode for key, if present.
func (c *Cache) Get(key uint64) (*bunlock.Lockfile, []bunlock.Warning, bool) {
	raw, ok := c.rc.Get(key)
	if !ok {
		return nil, nil, false
	}
	blob, ok := raw.([]byte)
	if !ok {
		return nil, nil, false
	}
	var e entry
	if err := msgpack.Unmarshal(blob, &e); err != nil {
		return nil, nil, false
	}
	return e.Lockfile, e.Warnings, true
}

// Put stores a decode result under key.
func (c *Cache) Put(key uint64, lf *bunlock.Lockfile, warnings []bunlock.Warning) error {
	blob, err := msgpack.Marshal(entry{Lockfile: lf, Warnings: warnings})
	if err != nil {
		return err
	}
	c.rc.Set(key, blob, int64(len(blob)))
	c.rc.Wait()
	return nil
}

// GetOrDecode returns the cached decode for data's content hash,
// decoding and populating the cache on a miss.
func (c *Cache) GetOrDecode(data []byte, decode func([]byte) (*bunlock.Lockfile, []bunlock.Warning, error)) (*bunlock.Lockfile, []bunlock.Warning, error) {
	key := Key(data)
	if lf, warnings, ok := c.Get(key); ok {
		return lf, warnings, nil
	}
	lf, warnings, err := decode(data)
	if err != nil {
		return nil, nil, err
	}
	_ = c.Put(key, lf, warnings)
	return lf, warnings, nil
}
