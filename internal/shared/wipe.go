// Package shared holds small helpers used across the server and admin
// tooling.
package shared

// WipeByteArray overwrites b with zeros so secrets such as passphrases do
// not linger in memory after use. Each slice is wiped in place; nil slices
// are ignored.
func WipeByteArray(bufs ...[]byte) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
}
