// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "github.com/cespare/xxhash/v2"

// verifyNameHash recomputes the xxhash64 of name and compares it against
// the on-disk name_hash column value. A mismatch is never fatal — the
// decoded name string always wins — but is surfaced as a warning so
// callers relying on name_hash for fast lookups learn their index may be
// stale relative to the name bytes actually stored.
//
// This enrichment is not spelled out by the on-disk format itself (the
// writer's hash function isn't part of the binary contract); xxhash64 is
// the fast non-cryptographic hash this decoder's dependency stack
// already carries for cache keys, see internal/cache.
func verifyNameHash(name string, stored uint64) *Warning {
	if stored == 0 {
		return nil
	}
	computed := xxhash.Sum64String(name)
	if computed == stored {
		return nil
	}
	w := warnf("NameHashMismatch",
		"name %q hashes to %#x but name_hash column says %#x", name, computed, stored)
	return &w
}
