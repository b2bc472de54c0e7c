package fulfillment

import "crypto/rand"

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeLength keeps the shared secret short enough to read over the phone at a
// physical handoff.
const codeLength = 6

// NewPickupCode mints the shared-secret handoff token. It must be
// unpredictable; it carries no identity, expiry, or rotation semantics.
func NewPickupCode() string {
	var b [codeLength]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, codeLength)
	for i, v := range b {
		out[i] = codeCharset[int(v)%len(codeCharset)]
	}
	return string(out)
}
