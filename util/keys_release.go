//go:build !debugkeys

package util

// GeneratePemKeypair mints a fresh keypair for a new local actor.
func GeneratePemKeypair() *RsaKeyPair {
	return newPemKeypair()
}
