package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// cheapParams keeps tests fast; production vaults use DefaultParams.
var cheapParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1}

func newTestCipher(t *testing.T, password string, salt []byte) *Cipher {
	t.Helper()
	kdf := &KDF{Salt: salt, Params: cheapParams}
	c, err := kdf.NewCipher([]byte(password))
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	t.Cleanup(c.Destroy)
	return c
}

func testSalt(t *testing.T) []byte {
	t.Helper()
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		t.Fatalf("Failed to generate salt: %v", err)
	}
	return salt
}

func TestNewKDF(t *testing.T) {
	kdf, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if len(kdf.Salt) != SaltSize {
		t.Errorf("Salt size: got %d, want %d", len(kdf.Salt), SaltSize)
	}
	if kdf.Params != DefaultParams() {
		t.Errorf("Params: got %+v, want %+v", kdf.Params, DefaultParams())
	}

	other, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if bytes.Equal(kdf.Salt, other.Salt) {
		t.Error("Two KDFs should not share a salt")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := testSalt(t)
	kdf := &KDF{Salt: salt, Params: cheapParams}

	k1, err := kdf.DeriveKey([]byte("Tr0ub4dor&3"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := kdf.DeriveKey([]byte("Tr0ub4dor&3"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(k1) != KeySize {
		t.Fatalf("Key size: got %d, want %d", len(k1), KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("Same password and salt must give the same key")
	}

	k3, err := kdf.DeriveKey([]byte("wrong"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Error("Different passwords must give different keys")
	}
}

func TestDeriveKeyRejectsParams(t *testing.T) {
	salt := testSalt(t)
	tests := []struct {
		name string
		kdf  KDF
	}{
		{"short salt", KDF{Salt: []byte("short"), Params: cheapParams}},
		{"zero time", KDF{Salt: salt, Params: Params{Time: 0, Memory: 8 * 1024, Threads: 1}}},
		{"zero threads", KDF{Salt: salt, Params: Params{Time: 1, Memory: 8 * 1024, Threads: 0}}},
		{"tiny memory", KDF{Salt: salt, Params: Params{Time: 1, Memory: 15, Threads: 2}}},
		{"huge time", KDF{Salt: salt, Params: Params{Time: 4000000000, Memory: 8 * 1024, Threads: 1}}},
		{"huge memory", KDF{Salt: salt, Params: Params{Time: 1, Memory: 4294967295, Threads: 1}}},
		{"too many threads", KDF{Salt: salt, Params: Params{Time: 1, Memory: 8 * 1024, Threads: 255}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.kdf.DeriveKey([]byte("pw")); !errors.Is(err, ErrKeyDerivation) {
				t.Errorf("Expected ErrKeyDerivation, got %v", err)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t, "Tr0ub4dor&3", testSalt(t))

	for _, plaintext := range []string{"", "p@ssw0rd123", "mailSecret!1", "пароль 密码 🔑"} {
		blob, err := c.EncryptString(plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if len(blob.Nonce) != NonceSize {
			t.Errorf("Nonce size: got %d, want %d", len(blob.Nonce), NonceSize)
		}
		if len(blob.Ciphertext) != len(plaintext)+TagSize {
			t.Errorf("Ciphertext size: got %d, want %d", len(blob.Ciphertext), len(plaintext)+TagSize)
		}

		got, err := c.DecryptString(blob)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if got != plaintext {
			t.Errorf("Round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestNonceUniqueness(t *testing.T) {
	c := newTestCipher(t, "pw", testSalt(t))

	const trials = 2000
	seen := make(map[string]struct{}, trials)
	var prev Blob
	for i := 0; i < trials; i++ {
		blob, err := c.EncryptString("same plaintext")
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if _, ok := seen[string(blob.Nonce)]; ok {
			t.Fatalf("Nonce repeated after %d encryptions", i)
		}
		seen[string(blob.Nonce)] = struct{}{}
		if i > 0 && bytes.Equal(prev.Ciphertext, blob.Ciphertext) {
			t.Fatal("Same plaintext encrypted twice gave identical ciphertext")
		}
		prev = blob
	}
}

func TestWrongPasswordRejected(t *testing.T) {
	salt := testSalt(t)
	right := newTestCipher(t, "Tr0ub4dor&3", salt)
	wrong := newTestCipher(t, "wrong", salt)

	blob, err := right.EncryptString("p@ssw0rd123")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := wrong.DecryptString(blob); !errors.Is(err, ErrDecrypt) {
			t.Fatalf("Expected ErrDecrypt, got %v", err)
		}
	}
}

func TestDecryptTampered(t *testing.T) {
	c := newTestCipher(t, "pw", testSalt(t))

	blob, err := c.EncryptString("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	flipped := Blob{Nonce: blob.Nonce, Ciphertext: append([]byte(nil), blob.Ciphertext...)}
	flipped.Ciphertext[0] ^= 0x01
	if _, err := c.Decrypt(flipped); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Tampered ciphertext: expected ErrDecrypt, got %v", err)
	}

	if _, err := c.Decrypt(Blob{Nonce: blob.Nonce[:4], Ciphertext: blob.Ciphertext}); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Short nonce: expected ErrDecrypt, got %v", err)
	}

	if _, err := c.Decrypt(Blob{Nonce: blob.Nonce, Ciphertext: blob.Ciphertext[:TagSize-1]}); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Short ciphertext: expected ErrDecrypt, got %v", err)
	}
}

func TestDecryptStringRejectsInvalidUTF8(t *testing.T) {
	c := newTestCipher(t, "pw", testSalt(t))

	blob, err := c.Encrypt([]byte{0xff, 0xfe, 0xfd})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := c.Decrypt(blob); err != nil {
		t.Fatalf("Raw decrypt should succeed: %v", err)
	}
	if _, err := c.DecryptString(blob); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Expected ErrDecrypt for invalid UTF-8, got %v", err)
	}
}

func TestNewCipherRejectsKeySize(t *testing.T) {
	if _, err := NewCipher(make([]byte, 16)); !errors.Is(err, ErrKeyDerivation) {
		t.Errorf("Expected ErrKeyDerivation, got %v", err)
	}
}

func TestDestroyClearsKey(t *testing.T) {
	key, err := GenerateRandom(KeySize)
	if err != nil {
		t.Fatalf("GenerateRandom failed: %v", err)
	}
	c, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	c.Destroy()
	if !bytes.Equal(key, make([]byte, KeySize)) {
		t.Error("Key should be zeroed after Destroy")
	}
}

func TestConstantTimeCompare(t *testing.T) {
	if !ConstantTimeCompare([]byte("abc"), []byte("abc")) {
		t.Error("Equal slices should compare equal")
	}
	if ConstantTimeCompare([]byte("abc"), []byte("abd")) {
		t.Error("Different slices should not compare equal")
	}
}
