// Package cryptox implements the record cipher: AES-256-CBC with PKCS#7
// padding and a fresh random IV per message, laid out as IV || CIPHERTEXT.
// The key is the SHA-256 digest of a process-wide passphrase.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
)

// IVSize is the length of the initialization vector prepended to every blob.
const IVSize = aes.BlockSize

// randRead is a test seam for crypto/rand.
var randRead = rand.Read

// DeriveKey turns the configured passphrase into a 32-byte AES key.
// The derivation is deterministic and matches records written by earlier
// deployments, so changing it breaks every stored record.
func DeriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// Encrypt pads plaintext and encrypts it under key with a new random IV.
//
// The key must be a valid AES key length (16, 24 or 32 bytes). The returned
// slice starts with the IV.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext, aes.BlockSize)

	out := make([]byte, IVSize+len(padded))
	iv := out[:IVSize]
	if _, err := randRead(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[IVSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt. Malformed or truncated input and padding that
// does not validate (the usual symptom of a wrong key) yield
// common.ErrDecryption.
func Decrypt(blob, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < IVSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", common.ErrDecryption, len(blob))
	}
	body := blob[IVSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not block aligned", common.ErrDecryption)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, blob[:IVSize]).CryptBlocks(plain, body)

	out, ok := unpad(plain, aes.BlockSize)
	if !ok {
		return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
	}
	return out, nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}

// Cipher binds a derived key to JSON sealing helpers. It is safe for
// concurrent use; the key is never mutated after construction.
type Cipher struct {
	key []byte
}

// NewCipher derives the key from passphrase once.
func NewCipher(passphrase string) *Cipher {
	return &Cipher{key: DeriveKey(passphrase)}
}

// Seal serializes v to JSON and encrypts it.
func (c *Cipher) Seal(v any) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Encrypt(plaintext, c.key)
}

// Open decrypts blob and unmarshals the JSON into v. Both decryption and
// JSON failures are reported as common.ErrDecryption: either way the object
// exists but cannot be read.
func (c *Cipher) Open(blob []byte, v any) error {
	plaintext, err := Decrypt(blob, c.key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return nil
}
