package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"salat-go/internal/salat"
)

// stubMagic marks archives written by StubEncryptor.
var stubMagic = []byte("SALATSTUB1\n")

// ErrWrongPassphrase is returned by StubEncryptor.Unlock.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// StubEncryptor is a deterministic, reversible salat.Encryptor for tests and
// the "test" encryption type. It frames plaintext with a magic line and
// checks the passphrase given to Setup, without any cryptography.
type StubEncryptor struct {
	passphrase string
	configured bool
}

var _ salat.Encryptor = (*StubEncryptor)(nil)

// NewStubEncryptor creates a StubEncryptor that accepts any passphrase until
// Setup is called.
func NewStubEncryptor() *StubEncryptor {
	return &StubEncryptor{configured: true}
}

func (e *StubEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *StubEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(stubMagic); err != nil {
		return fmt.Errorf("writing stub header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying archive: %w", err)
	}
	return nil
}

func (e *StubEncryptor) Unlock(passphrase string) (salat.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return StubDecryptionContext{}, nil
}

func (e *StubEncryptor) IsConfigured() bool {
	return e.configured
}

// StubDecryptionContext strips the StubEncryptor framing.
type StubDecryptionContext struct{}

var _ salat.DecryptionContext = StubDecryptionContext{}

func (StubDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	head := make([]byte, len(stubMagic))
	if _, err := io.ReadFull(r, head); err != nil {
		return fmt.Errorf("reading stub header: %w", err)
	}
	if !bytes.Equal(head, stubMagic) {
		return fmt.Errorf("not a stub-encrypted archive")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying archive: %w", err)
	}
	return nil
}
