// Package crypto encrypts credential values at rest with AES-256-GCM.
// Encryption keys are derived from master keys via scrypt; a keyring holds
// the current primary plus any number of rotated previous keys so old
// ciphertexts stay readable after rotation.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// KeySize is 32 bytes for AES-256.
	KeySize = 32

	// NonceSize is the AES-GCM nonce size.
	NonceSize = 12

	// SaltSize for scrypt key derivation. A fresh salt per encryption keeps
	// identical plaintexts from producing identical ciphertexts.
	SaltSize = 32

	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// ErrDecryptionFailed is returned when no keyring key can open a ciphertext.
var ErrDecryptionFailed = errors.New("decryption failed: no key could open ciphertext")

// ScryptParams tunes key derivation cost. Tests may lower N; production uses
// DefaultParams.
type ScryptParams struct {
	N int
	R int
	P int
}

func DefaultParams() ScryptParams {
	return ScryptParams{N: scryptN, R: scryptR, P: scryptP}
}

func deriveKey(masterKey, salt []byte, params ScryptParams) ([]byte, error) {
	if len(masterKey) == 0 {
		return nil, errors.New("master key cannot be empty")
	}

	if len(salt) != SaltSize {
		return nil, fmt.Errorf("invalid salt size: expected %d bytes, got %d", SaltSize, len(salt))
	}

	return scrypt.Key(masterKey, salt, params.N, params.R, params.P, KeySize)
}

// Keyring encrypts with the primary key and decrypts with the primary first,
// then each previous key in rotation order.
type Keyring struct {
	primary  []byte
	previous [][]byte
	params   ScryptParams
}

func NewKeyring(primary []byte, previous ...[]byte) (*Keyring, error) {
	return NewKeyringWithParams(DefaultParams(), primary, previous...)
}

func NewKeyringWithParams(params ScryptParams, primary []byte, previous ...[]byte) (*Keyring, error) {
	if len(primary) == 0 {
		return nil, errors.New("keyring requires a non-empty primary key")
	}

	return &Keyring{primary: primary, previous: previous, params: params}, nil
}

// Rotate returns a new keyring with newPrimary in front and the old primary
// prepended to the previous keys.
func (k *Keyring) Rotate(newPrimary []byte) (*Keyring, error) {
	if len(newPrimary) == 0 {
		return nil, errors.New("new primary key cannot be empty")
	}

	previous := make([][]byte, 0, len(k.previous)+1)
	previous = append(previous, k.primary)
	previous = append(previous, k.previous...)

	return &Keyring{primary: newPrimary, previous: previous, params: k.params}, nil
}

// Encrypt seals plaintext with the primary key. The returned blob is
// salt || nonce || ciphertext.
func (k *Keyring) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(k.primary, salt, k.params)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, SaltSize+NonceSize+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return blob, nil
}

// Decrypt opens a blob, trying the primary key first and then each rotated
// previous key. GCM authentication rejects wrong keys, so trial decryption
// is safe.
func (k *Keyring) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < SaltSize+NonceSize+1 {
		return nil, errors.New("ciphertext too short")
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize : SaltSize+NonceSize]
	sealed := blob[SaltSize+NonceSize:]

	candidates := make([][]byte, 0, len(k.previous)+1)
	candidates = append(candidates, k.primary)
	candidates = append(candidates, k.previous...)

	for _, masterKey := range candidates {
		key, err := deriveKey(masterKey, salt, k.params)
		if err != nil {
			return nil, err
		}

		gcm, err := newGCM(key)
		if err != nil {
			return nil, err
		}

		plaintext, err := gcm.Open(nil, nonce, sealed, nil)
		if err == nil {
			return plaintext, nil
		}
	}

	return nil, ErrDecryptionFailed
}

// EncryptString seals a string and returns it base64-encoded for storage.
func (k *Keyring) EncryptString(plaintext string) (string, error) {
	blob, err := k.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptString reverses EncryptString.
func (k *Keyring) DecryptString(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}

	plaintext, err := k.Decrypt(blob)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
