package vault

import (
	"errors"
	"time"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/storage"
)

// Info is the unencrypted part of a vault, readable without the password
type Info struct {
	ID       string
	Created  time.Time
	Modified time.Time
	Params   crypto.Params
	Records  int
}

// Inspect reads vault metadata without deriving a key
func Inspect(backend storage.Backend) (*Info, error) {
	data, err := backend.Load()
	if errors.Is(err, storage.ErrNotExist) {
		return nil, newError(KindNotInitialized, "", nil)
	}
	if err != nil {
		return nil, newError(KindPersistence, "", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, newError(KindPersistence, "", err)
	}

	return &Info{
		ID:       doc.VaultID,
		Created:  doc.Created,
		Modified: doc.Modified,
		Params:   doc.KDF.Params,
		Records:  len(doc.Entries),
	}, nil
}
