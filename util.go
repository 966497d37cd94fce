// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "encoding/base64"

// base64NoPad renders b using standard base64 with the trailing '='
// padding stripped, per §4.6's "base64, no padding" encoding.
func base64NoPad(b []byte) string {
	return base64.StdEncoding.WithPadding(base64.NoPadding).EncodeToString(b)
}
