package storage

import (
	"errors"
	"fmt"
	"time"
)

const (
	FilePermSecure = 0600 // File: owner rw only
	DirPermSecure  = 0700 // Directory: owner rwx only
)

// Backend kinds
const (
	KindFile = "file"
	KindBolt = "bolt"
)

// ErrNotExist is returned by Load when no vault document has been stored yet
var ErrNotExist = errors.New("vault document does not exist")

// Backend persists the serialized vault document as one unit.
// Save replaces the whole document; a failed Save must leave the
// previously stored document readable.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Exists() (bool, error)
	Path() string
	Close() error
}

// Compacter is implemented by backends that can reclaim unused space
type Compacter interface {
	Compact() error
}

// Stamper is implemented by backends that can report when the document
// was last written
type Stamper interface {
	LastWrite() (time.Time, error)
}

// Open opens the backend of the given kind at path
func Open(kind, path string) (Backend, error) {
	switch kind {
	case KindFile, "":
		return NewFile(path), nil
	case KindBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
