package vault

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/storage"
)

// canaryPlaintext is encrypted at creation and checked on every open, so an
// empty vault still verifies the passphrase.
const canaryPlaintext = "passvault-password-check"

// Record is one stored credential
type Record struct {
	Service      string
	Username     string
	Secret       crypto.Blob
	LastModified time.Time
}

// Summary describes a record without its secret
type Summary struct {
	Service      string
	Username     string
	LastModified time.Time
}

type options struct {
	log    *zap.SugaredLogger
	params crypto.Params
	now    func() time.Time
}

// Option configures Create, Open and OpenOrCreate
type Option func(*options)

// WithLogger sets the logger. Secrets are never logged.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithParams sets the Argon2id work factors for a newly created vault.
// Existing vaults always use the params stored in their header.
func WithParams(p crypto.Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:    zap.NewNop().Sugar(),
		params: crypto.DefaultParams(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Vault is an unlocked credential vault. It is not safe for concurrent use.
type Vault struct {
	backend  storage.Backend
	cipher   *crypto.Cipher
	log      *zap.SugaredLogger
	now      func() time.Time
	id       string
	created  time.Time
	modified time.Time
	kdf      kdfHeader
	canary   crypto.Blob
	records  map[string]Record
}

// Create initializes a new vault in backend protected by password
func Create(backend storage.Backend, password []byte, opts ...Option) (*Vault, error) {
	o := newOptions(opts)

	exists, err := backend.Exists()
	if err != nil {
		return nil, newError(KindPersistence, "", err)
	}
	if exists {
		return nil, newError(KindAlreadyExists, "", nil)
	}

	salt, err := crypto.GenerateRandom(crypto.SaltSize)
	if err != nil {
		return nil, newError(KindKeyDerivation, "", err)
	}
	kdf := &crypto.KDF{Salt: salt, Params: o.params}

	o.log.Debugw("deriving key", "time", o.params.Time, "memory", o.params.Memory, "threads", o.params.Threads)
	c, err := kdf.NewCipher(password)
	if err != nil {
		return nil, newError(KindKeyDerivation, "", err)
	}

	canary, err := c.EncryptString(canaryPlaintext)
	if err != nil {
		c.Destroy()
		return nil, newError(KindPersistence, "", err)
	}

	now := o.timestamp()
	v := &Vault{
		backend:  backend,
		cipher:   c,
		log:      o.log,
		now:      o.now,
		id:       uuid.NewString(),
		created:  now,
		modified: now,
		kdf:      kdfHeader{Algorithm: crypto.Algorithm, Salt: salt, Params: o.params},
		canary:   canary,
		records:  make(map[string]Record),
	}

	if err := v.write(now); err != nil {
		c.Destroy()
		return nil, err
	}

	v.log.Infow("created vault", "path", backend.Path(), "vault_id", v.id)
	return v, nil
}

// Open loads an existing vault and verifies password against the canary
func Open(backend storage.Backend, password []byte, opts ...Option) (*Vault, error) {
	o := newOptions(opts)

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

	kdf := &crypto.KDF{Salt: doc.KDF.Salt, Params: doc.KDF.Params}
	o.log.Debugw("deriving key", "time", kdf.Params.Time, "memory", kdf.Params.Memory, "threads", kdf.Params.Threads)
	c, err := kdf.NewCipher(password)
	if err != nil {
		return nil, newError(KindKeyDerivation, "", err)
	}

	check, err := c.DecryptString(doc.Canary)
	if err != nil {
		c.Destroy()
		return nil, newError(KindDecryption, "", err)
	}
	if !crypto.ConstantTimeCompare([]byte(check), []byte(canaryPlaintext)) {
		c.Destroy()
		return nil, newError(KindDecryption, "", errors.New("password check mismatch"))
	}

	records := make(map[string]Record, len(doc.Entries))
	for service, e := range doc.Entries {
		records[service] = Record{
			Service:      service,
			Username:     e.Username,
			Secret:       e.Password,
			LastModified: e.LastModified,
		}
	}

	v := &Vault{
		backend:  backend,
		cipher:   c,
		log:      o.log,
		now:      o.now,
		id:       doc.VaultID,
		created:  doc.Created,
		modified: doc.Modified,
		kdf:      doc.KDF,
		canary:   doc.Canary,
		records:  records,
	}

	v.log.Debugw("opened vault", "path", backend.Path(), "records", len(records))
	return v, nil
}

// OpenOrCreate opens the vault in backend, creating an empty one on first run
func OpenOrCreate(backend storage.Backend, password []byte, opts ...Option) (*Vault, error) {
	exists, err := backend.Exists()
	if err != nil {
		return nil, newError(KindPersistence, "", err)
	}
	if !exists {
		return Create(backend, password, opts...)
	}
	return Open(backend, password, opts...)
}

// Close clears the session key and closes the backend. Later calls are no-ops.
func (v *Vault) Close() error {
	if v.cipher == nil {
		return nil
	}
	v.cipher.Destroy()
	v.cipher = nil
	return v.backend.Close()
}

// checkOpen fails once the vault has been closed
func (v *Vault) checkOpen() error {
	if v.cipher == nil {
		return newError(KindNotInitialized, "", errors.New("vault is closed"))
	}
	return nil
}

// Add encrypts secret and stores it under service, replacing any existing record
func (v *Vault) Add(service, username, secret string) error {
	if err := v.checkOpen(); err != nil {
		return err
	}
	if service == "" {
		return newError(KindInvalidArgument, "", errors.New("service name must not be empty"))
	}

	blob, err := v.cipher.EncryptString(secret)
	if err != nil {
		return newError(KindPersistence, service, err)
	}

	now := v.timestamp()
	prev, existed := v.records[service]
	v.records[service] = Record{
		Service:      service,
		Username:     username,
		Secret:       blob,
		LastModified: now,
	}

	if err := v.write(now); err != nil {
		if existed {
			v.records[service] = prev
		} else {
			delete(v.records, service)
		}
		return err
	}

	v.log.Infow("stored record", "service", service, "replaced", existed)
	return nil
}

// Get decrypts the secret stored for service
func (v *Vault) Get(service string) (string, error) {
	if err := v.checkOpen(); err != nil {
		return "", err
	}
	rec, ok := v.records[service]
	if !ok {
		return "", newError(KindServiceNotFound, service, nil)
	}

	secret, err := v.cipher.DecryptString(rec.Secret)
	if err != nil {
		return "", newError(KindDecryption, service, err)
	}
	return secret, nil
}

// List returns a summary of every record in no particular order
func (v *Vault) List() []Summary {
	summaries := make([]Summary, 0, len(v.records))
	for _, rec := range v.records {
		summaries = append(summaries, Summary{
			Service:      rec.Service,
			Username:     rec.Username,
			LastModified: rec.LastModified,
		})
	}
	return summaries
}

// Remove deletes the record for service
func (v *Vault) Remove(service string) error {
	if err := v.checkOpen(); err != nil {
		return err
	}
	prev, ok := v.records[service]
	if !ok {
		return newError(KindServiceNotFound, service, nil)
	}

	delete(v.records, service)
	if err := v.write(v.timestamp()); err != nil {
		v.records[service] = prev
		return err
	}

	v.log.Infow("removed record", "service", service)
	return nil
}

// Save rewrites the current state without changing any timestamp
func (v *Vault) Save() error {
	if err := v.checkOpen(); err != nil {
		return err
	}
	return v.write(v.modified)
}

// Len returns the number of records
func (v *Vault) Len() int {
	return len(v.records)
}

// ID returns the vault identifier used for keyring lookups
func (v *Vault) ID() string {
	return v.id
}

// Created returns the vault creation time
func (v *Vault) Created() time.Time {
	return v.created
}

// Modified returns the time of the last committed change
func (v *Vault) Modified() time.Time {
	return v.modified
}

// Params returns the key derivation work factors of this vault
func (v *Vault) Params() crypto.Params {
	return v.kdf.Params
}

// Path returns the storage location
func (v *Vault) Path() string {
	return v.backend.Path()
}

// write serializes the full vault and hands it to the backend.
// v.modified only advances once the backend accepted the document.
func (v *Vault) write(modified time.Time) error {
	doc := &document{
		Version:  formatVersion,
		VaultID:  v.id,
		Created:  v.created,
		Modified: modified,
		KDF:      v.kdf,
		Canary:   v.canary,
		Entries:  make(map[string]entry, len(v.records)),
	}
	for service, rec := range v.records {
		doc.Entries[service] = entry{
			Username:     rec.Username,
			Password:     rec.Secret,
			LastModified: rec.LastModified,
		}
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return newError(KindPersistence, "", err)
	}
	if err := v.backend.Save(data); err != nil {
		v.log.Warnw("failed to persist vault", "path", v.backend.Path(), "error", err)
		return newError(KindPersistence, "", err)
	}

	v.modified = modified
	v.log.Debugw("persisted vault", "path", v.backend.Path(), "records", len(v.records), "bytes", len(data))
	return nil
}

func (v *Vault) timestamp() time.Time {
	return v.now().UTC().Truncate(time.Second)
}

func (o *options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Second)
}

// SortSummaries orders summaries by service name
func SortSummaries(summaries []Summary) {
	slices.SortFunc(summaries, func(a, b Summary) int {
		return strings.Compare(a.Service, b.Service)
	})
}
