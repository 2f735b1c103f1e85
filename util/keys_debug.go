//go:build debugkeys

package util

import "sync"

var (
	debugKeypair     *RsaKeyPair
	debugKeypairOnce sync.Once
)

// GeneratePemKeypair returns a single process-wide keypair, generated once
// and shared by every actor. Key generation dominates test runtime, so test
// builds (-tags debugkeys) reuse one key. Release builds never compile this
// file.
func GeneratePemKeypair() *RsaKeyPair {
	debugKeypairOnce.Do(func() {
		debugKeypair = newPemKeypair()
	})
	return debugKeypair
}
