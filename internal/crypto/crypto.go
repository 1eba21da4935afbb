package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize  = 16 // Salt size in bytes
	KeySize   = 32 // AES-256 key size
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM authentication tag size

	Algorithm = "argon2id"

	// Upper bounds on work factors; params read from a file are untrusted
	MaxTime    = 64
	MaxMemory  = 4 * 1024 * 1024 // KiB (4 GiB)
	MaxThreads = 64
)

var (
	ErrKeyDerivation = errors.New("key derivation failed")
	ErrDecrypt       = errors.New("decryption failed")
)

// Params holds the Argon2id work factors
type Params struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"` // KiB
	Threads uint8  `json:"threads"`
}

// DefaultParams returns the argon2 reference defaults (19 MiB, 2 passes, 1 lane)
func DefaultParams() Params {
	return Params{
		Time:    2,
		Memory:  19 * 1024,
		Threads: 1,
	}
}

// Validate checks the work factors against argon2's minimums and our maximums
func (p Params) Validate() error {
	if p.Time < 1 || p.Time > MaxTime {
		return fmt.Errorf("%w: time must be between 1 and %d", ErrKeyDerivation, MaxTime)
	}
	if p.Threads < 1 || p.Threads > MaxThreads {
		return fmt.Errorf("%w: threads must be between 1 and %d", ErrKeyDerivation, MaxThreads)
	}
	if p.Memory < 8*uint32(p.Threads) || p.Memory > MaxMemory {
		return fmt.Errorf("%w: memory must be between %d and %d KiB", ErrKeyDerivation, 8*uint32(p.Threads), MaxMemory)
	}
	return nil
}

// KDF handles key derivation from passwords
type KDF struct {
	Salt   []byte
	Params Params
}

// NewKDF creates a new KDF with a random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:   salt,
		Params: DefaultParams(),
	}, nil
}

// DeriveKey derives an encryption key from a password
func (k *KDF) DeriveKey(password []byte) ([]byte, error) {
	if len(k.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrKeyDerivation, SaltSize, len(k.Salt))
	}
	if err := k.Params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(password, k.Salt, k.Params.Time, k.Params.Memory, k.Params.Threads, KeySize), nil
}

// NewCipher derives the key for password and binds it to an AES-256-GCM cipher
func (k *KDF) NewCipher(password []byte) (*Cipher, error) {
	key, err := k.DeriveKey(password)
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}

// Blob is the encrypted form of a single secret.
// Ciphertext carries the GCM tag at its end.
type Blob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Cipher provides authenticated encryption under one key
type Cipher struct {
	key  []byte
	aead cipher.AEAD
}

// NewCipher creates a new cipher with the given key. The cipher takes
// ownership of key and clears it on Destroy.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrKeyDerivation, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{
		key:  key,
		aead: gcm,
	}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with a fresh random nonce
func (c *Cipher) Encrypt(plaintext []byte) (Blob, error) {
	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return Blob{
		Nonce:      nonce,
		Ciphertext: c.aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// EncryptString encrypts a text secret
func (c *Cipher) EncryptString(plaintext string) (Blob, error) {
	data := []byte(plaintext)
	defer ClearBytes(data)
	return c.Encrypt(data)
}

// Decrypt decrypts and authenticates a blob
func (c *Cipher) Decrypt(blob Blob) ([]byte, error) {
	if len(blob.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: invalid nonce size %d", ErrDecrypt, len(blob.Nonce))
	}
	if len(blob.Ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	plaintext, err := c.aead.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}

	return plaintext, nil
}

// DecryptString decrypts a blob that must hold UTF-8 text
func (c *Cipher) DecryptString(blob Blob) (string, error) {
	plaintext, err := c.Decrypt(blob)
	if err != nil {
		return "", err
	}
	defer ClearBytes(plaintext)

	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecrypt)
	}
	return string(plaintext), nil
}

// Destroy clears the cipher's key from memory
func (c *Cipher) Destroy() {
	ClearBytes(c.key)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
