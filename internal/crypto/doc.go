// Package crypto provides cryptographic operations for passvault.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the master password via Argon2id
//   - 12-byte random nonce per encryption operation
//   - 16-byte authentication tag appended to the ciphertext
//
// Key derivation uses Argon2id with:
//   - 16-byte random salt per vault (stored unencrypted)
//   - work factors stored next to the salt so the key is reproducible
//
// A single key is derived once per session and reused for every record;
// each Encrypt call draws its own nonce.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Cipher.Destroy() when done with encryption operations
package crypto
