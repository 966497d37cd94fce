package bunlock

import "testing"

// FuzzDecode checks the universal property spec §8 demands of any
// input: Decode must never panic, and on success must never return a
// nil Lockfile.
func FuzzDecode(f *testing.F) {
	f.Add(buildMinimalLockfile())
	f.Add([]byte("not a lockfile at all"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		lf, _, err := DecodeWithWarnings(data)
		if err != nil {
			if lf != nil {
				t.Fatalf("Decode returned both an error and a non-nil Lockfile")
			}
			return
		}
		if lf == nil {
			t.Fatalf("Decode returned no error but a nil Lockfile")
		}
	})
}
