package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/illarion/passvault/internal/crypto"
)

const formatVersion = 1

// document is the on-disk layout. Entries maps service name to record.
type document struct {
	Version  int              `json:"version"`
	VaultID  string           `json:"vault_id"`
	Created  time.Time        `json:"created"`
	Modified time.Time        `json:"modified"`
	KDF      kdfHeader        `json:"kdf"`
	Canary   crypto.Blob      `json:"canary"`
	Entries  map[string]entry `json:"entries"`
}

type kdfHeader struct {
	Algorithm string `json:"algorithm"`
	Salt      []byte `json:"salt"`
	crypto.Params
}

type entry struct {
	Username     string      `json:"username"`
	Password     crypto.Blob `json:"password"`
	LastModified time.Time   `json:"last_modified"`
}

func encodeDocument(doc *document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeDocument(data []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("unsupported vault version %d", doc.Version)
	}
	if doc.KDF.Algorithm != crypto.Algorithm {
		return nil, fmt.Errorf("unsupported key derivation %q", doc.KDF.Algorithm)
	}
	if len(doc.KDF.Salt) != crypto.SaltSize {
		return nil, fmt.Errorf("invalid salt length %d", len(doc.KDF.Salt))
	}
	if err := doc.KDF.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kdf header: %w", err)
	}
	if len(doc.Canary.Nonce) != crypto.NonceSize {
		return nil, fmt.Errorf("invalid canary nonce")
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]entry)
	}
	for service, e := range doc.Entries {
		if service == "" {
			return nil, fmt.Errorf("record with empty service name")
		}
		if len(e.Password.Nonce) != crypto.NonceSize {
			return nil, fmt.Errorf("record %q has invalid nonce", service)
		}
	}
	return &doc, nil
}
