// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

// Fuzz is the legacy go-fuzz-corpus entry point: return 1 when data
// decoded without a hard error, 0 otherwise.
func Fuzz(data []byte) int {
	if _, err := Decode(data); err != nil {
		return 0
	}
	return 1
}
