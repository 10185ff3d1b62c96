package salat

import "io"

// Encryptor protects backup archives produced by Export.
// Sealing needs only the public key; opening an archive requires the
// passphrase that guards the private key.
type Encryptor interface {
	// Setup generates the key pair once. The public key is stored in
	// plaintext and the private key is sealed with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key with passphrase. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one import.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
