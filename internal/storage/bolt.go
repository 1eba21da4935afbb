package storage

import (
	"bytes"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // Format version and last write time - unencrypted
	VaultBucket  = []byte("vault")  // Serialized vault document
)

// Keys
var (
	ConfigVersion  = []byte("version")
	ConfigModified = []byte("modified")
	DocumentKey    = []byte("document")
)

var boltVersion = []byte("1")

// Bolt stores the vault document in a BBolt database
type Bolt struct {
	db *bolt.DB
}

func boltOptions() *bolt.Options {
	return &bolt.Options{Timeout: time.Second}
}

// OpenBolt opens or creates a BBolt vault database
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, FilePermSecure, boltOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := &Bolt{db: db}
	if err := b.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// initialize creates the bucket structure if missing
func (b *Bolt) initialize() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		switch version := config.Get(ConfigVersion); {
		case version == nil:
			return config.Put(ConfigVersion, boltVersion)
		case !bytes.Equal(version, boltVersion):
			return fmt.Errorf("unsupported database version %q", version)
		}
		return nil
	})
}

// Path returns the database file path
func (b *Bolt) Path() string {
	return b.db.Path()
}

// Close closes the database
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Exists reports whether a vault document has been stored
func (b *Bolt) Exists() (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(VaultBucket)
		exists = bucket != nil && bucket.Get(DocumentKey) != nil
		return nil
	})
	return exists, err
}

// Load retrieves the vault document
func (b *Bolt) Load() ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(VaultBucket)
		if bucket == nil {
			return ErrNotExist
		}
		data = bucket.Get(DocumentKey)
		if data == nil {
			return ErrNotExist
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), data...)
		return nil
	})
	return data, err
}

// Save replaces the vault document and updates the modified timestamp
// in a single transaction
func (b *Bolt) Save(data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(VaultBucket).Put(DocumentKey, data); err != nil {
			return fmt.Errorf("failed to store document: %w", err)
		}
		modified, _ := time.Now().UTC().MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
}

// LastWrite returns the time of the last successful Save
func (b *Bolt) LastWrite() (time.Time, error) {
	var modified time.Time
	err := b.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return ErrNotExist
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// Compact creates a compacted copy of the database, removing unused space.
// Every Save leaves a freed page behind, so the file grows until compacted.
func (b *Bolt) Compact() error {
	srcPath := b.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, FilePermSecure, boltOptions())
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = b.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := b.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	b.db, err = bolt.Open(srcPath, FilePermSecure, boltOptions())
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
