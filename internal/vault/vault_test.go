package vault

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/storage"
)

var testParams = crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func createVault(t *testing.T, backend storage.Backend, password string) *Vault {
	t.Helper()
	v, err := Create(backend, []byte(password), WithParams(testParams))
	require.NoError(t, err)
	return v
}

func services(summaries []Summary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Service)
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")

	v := createVault(t, storage.NewFile(path), "Tr0ub4dor&3")
	require.NoError(t, v.Add("github", "alice", "p@ssw0rd123"))
	require.NoError(t, v.Add("gmail", "alice", "mailSecret!1"))

	list := v.List()
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"github", "gmail"}, services(list))

	secret, err := v.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "p@ssw0rd123", secret)

	require.NoError(t, v.Remove("gmail"))
	assert.Len(t, v.List(), 1)
	require.NoError(t, v.Close())

	// Second session, right passphrase
	v2, err := Open(storage.NewFile(path), []byte("Tr0ub4dor&3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"github"}, services(v2.List()))
	secret, err = v2.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "p@ssw0rd123", secret)
	require.NoError(t, v2.Close())

	// Second session, wrong passphrase
	_, err = Open(storage.NewFile(path), []byte("wrong"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecryption)
	assert.Equal(t, KindDecryption, KindOf(err))
	assert.ErrorIs(t, err, crypto.ErrDecrypt)
}

func TestWrongPassphraseOnEmptyVault(t *testing.T) {
	backend := storage.NewMemory()
	v := createVault(t, backend, "right")
	require.NoError(t, v.Close())

	for i := 0; i < 3; i++ {
		_, err := Open(backend, []byte("wrong"))
		assert.ErrorIs(t, err, ErrDecryption)
	}

	v, err := Open(backend, []byte("right"))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}

func TestUpsert(t *testing.T) {
	v := createVault(t, storage.NewMemory(), "pw")

	require.NoError(t, v.Add("x", "first", "one"))
	require.NoError(t, v.Add("x", "second", "two"))

	list := v.List()
	require.Len(t, list, 1)
	assert.Equal(t, "x", list[0].Service)
	assert.Equal(t, "second", list[0].Username)

	secret, err := v.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "two", secret)
}

func TestNotFound(t *testing.T) {
	backend := storage.NewMemory()
	v := createVault(t, backend, "pw")
	require.NoError(t, v.Add("present", "bob", "s3cret"))
	before, err := backend.Load()
	require.NoError(t, err)
	saves := backend.Saves()

	_, err = v.Get("missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Equal(t, KindServiceNotFound, KindOf(err))

	err = v.Remove("missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "missing", verr.Service)

	after, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, saves, backend.Saves())
	assert.Equal(t, 1, v.Len())
}

func TestAddRejectsEmptyService(t *testing.T) {
	v := createVault(t, storage.NewMemory(), "pw")
	err := v.Add("", "user", "secret")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, v.Len())
}

func TestPersistenceIdempotent(t *testing.T) {
	backend := storage.NewMemory()
	v := createVault(t, backend, "pw")
	require.NoError(t, v.Add("github", "alice", "p@ssw0rd123"))
	require.NoError(t, v.Add("gmail", "alice", "mailSecret!1"))
	require.NoError(t, v.Close())

	saved, err := backend.Load()
	require.NoError(t, err)

	reopened, err := Open(backend, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, reopened.Save())

	resaved, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, string(saved), string(resaved))

	secret, err := reopened.Get("gmail")
	require.NoError(t, err)
	assert.Equal(t, "mailSecret!1", secret)
}

func TestAddRollsBackOnPersistFailure(t *testing.T) {
	backend := storage.NewMemory()
	v := createVault(t, backend, "pw")
	require.NoError(t, v.Add("keep", "alice", "original"))
	modified := v.Modified()

	backend.SaveErr = errors.New("disk full")

	err := v.Add("new", "bob", "value")
	assert.ErrorIs(t, err, ErrPersistence)
	_, err = v.Get("new")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	err = v.Add("keep", "mallory", "changed")
	assert.ErrorIs(t, err, ErrPersistence)
	secret, err := v.Get("keep")
	require.NoError(t, err)
	assert.Equal(t, "original", secret)
	assert.Equal(t, "alice", v.List()[0].Username)

	err = v.Remove("keep")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, modified, v.Modified())
}

func TestCreateExisting(t *testing.T) {
	backend := storage.NewMemory()
	createVault(t, backend, "pw")

	_, err := Create(backend, []byte("pw"), WithParams(testParams))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, KindAlreadyExists, KindOf(err))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(storage.NewMemory(), []byte("pw"))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = Open(storage.NewFile(filepath.Join(t.TempDir(), "none.json")), []byte("pw"))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestOpenOrCreate(t *testing.T) {
	backend := storage.NewMemory()

	v, err := OpenOrCreate(backend, []byte("pw"), WithParams(testParams))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Saves(), "first run persists the canary")
	require.NoError(t, v.Add("svc", "u", "s"))
	id := v.ID()

	v2, err := OpenOrCreate(backend, []byte("pw"), WithParams(testParams))
	require.NoError(t, err)
	assert.Equal(t, id, v2.ID())
	assert.Equal(t, 1, v2.Len())

	_, err = OpenOrCreate(backend, []byte("nope"))
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestOpenMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"wrong version", `{"version":9,"kdf":{"algorithm":"argon2id"}}`},
		{"wrong kdf", `{"version":1,"kdf":{"algorithm":"scrypt"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := storage.NewMemory()
			require.NoError(t, backend.Save([]byte(tt.data)))

			_, err := Open(backend, []byte("pw"))
			assert.ErrorIs(t, err, ErrPersistence)
		})
	}
}

// rewriteKDF stores a copy of a valid vault whose kdf header was changed by edit
func rewriteKDF(t *testing.T, edit func(kdf map[string]any)) *storage.Memory {
	t.Helper()
	backend := storage.NewMemory()
	v := createVault(t, backend, "pw")
	require.NoError(t, v.Add("github", "alice", "p@ssw0rd123"))

	data, err := backend.Load()
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	edit(raw["kdf"].(map[string]any))
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, backend.Save(data))
	return backend
}

func TestOpenRejectsBadKDFHeader(t *testing.T) {
	tests := []struct {
		name string
		edit func(kdf map[string]any)
	}{
		{"zero threads", func(kdf map[string]any) { kdf["threads"] = 0 }},
		{"zero time", func(kdf map[string]any) { kdf["time"] = 0 }},
		{"huge time", func(kdf map[string]any) { kdf["time"] = 4000000000 }},
		{"huge memory", func(kdf map[string]any) { kdf["memory"] = 4294967295 }},
		{"too many threads", func(kdf map[string]any) { kdf["threads"] = 200 }},
		{"short salt", func(kdf map[string]any) { kdf["salt"] = "c2hvcnQ=" }},
		{"missing salt", func(kdf map[string]any) { delete(kdf, "salt") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := rewriteKDF(t, tt.edit)

			_, err := Open(backend, []byte("pw"))
			assert.ErrorIs(t, err, ErrPersistence)
			assert.Equal(t, KindPersistence, KindOf(err))

			_, err = Inspect(backend)
			assert.ErrorIs(t, err, ErrPersistence)
		})
	}
}

func TestCreateRejectsExcessiveParams(t *testing.T) {
	backend := storage.NewMemory()
	_, err := Create(backend, []byte("pw"), WithParams(crypto.Params{Time: 1, Memory: crypto.MaxMemory + 1, Threads: 1}))
	assert.ErrorIs(t, err, ErrKeyDerivation)

	exists, err := backend.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClosedVault(t *testing.T) {
	backend := storage.NewMemory()
	v := createVault(t, backend, "pw")
	require.NoError(t, v.Add("github", "alice", "p@ssw0rd123"))
	saves := backend.Saves()
	require.NoError(t, v.Close())

	assert.ErrorIs(t, v.Add("gmail", "alice", "x"), ErrNotInitialized)
	_, err := v.Get("github")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, v.Remove("github"), ErrNotInitialized)
	assert.ErrorIs(t, v.Save(), ErrNotInitialized)
	assert.NoError(t, v.Close())
	assert.Equal(t, saves, backend.Saves())
}

func TestTamperedRecordFailsDecryption(t *testing.T) {
	backend := storage.NewMemory()
	v := createVault(t, backend, "pw")
	require.NoError(t, v.Add("github", "alice", "p@ssw0rd123"))

	data, err := backend.Load()
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	e := doc.Entries["github"]
	e.Password.Ciphertext[0] ^= 0xff
	doc.Entries["github"] = e
	data, err = encodeDocument(&doc)
	require.NoError(t, err)
	require.NoError(t, backend.Save(data))

	v2, err := Open(backend, []byte("pw"))
	require.NoError(t, err)
	_, err = v2.Get("github")
	assert.ErrorIs(t, err, ErrDecryption)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "github", verr.Service)
}

func TestDocumentFormat(t *testing.T) {
	backend := storage.NewMemory()
	at := time.Date(2026, 10, 18, 12, 30, 45, 999, time.UTC)
	v, err := Create(backend, []byte("pw"), WithParams(testParams), WithClock(fixedClock(at)))
	require.NoError(t, err)
	require.NoError(t, v.Add("github", "alice", "p@ssw0rd123"))

	data, err := backend.Load()
	require.NoError(t, err)

	var raw struct {
		Version int `json:"version"`
		KDF     struct {
			Algorithm string `json:"algorithm"`
			Salt      []byte `json:"salt"`
			Time      uint32 `json:"time"`
			Memory    uint32 `json:"memory"`
			Threads   uint8  `json:"threads"`
		} `json:"kdf"`
		Entries map[string]struct {
			Username string `json:"username"`
			Password struct {
				Nonce      []byte `json:"nonce"`
				Ciphertext []byte `json:"ciphertext"`
			} `json:"password"`
			LastModified string `json:"last_modified"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, 1, raw.Version)
	assert.Equal(t, "argon2id", raw.KDF.Algorithm)
	assert.Len(t, raw.KDF.Salt, crypto.SaltSize)
	assert.Equal(t, testParams.Memory, raw.KDF.Memory)

	rec, ok := raw.Entries["github"]
	require.True(t, ok)
	assert.Equal(t, "alice", rec.Username)
	assert.Len(t, rec.Password.Nonce, crypto.NonceSize)
	assert.Len(t, rec.Password.Ciphertext, len("p@ssw0rd123")+crypto.TagSize)
	assert.Equal(t, "2026-10-18T12:30:45Z", rec.LastModified)
	assert.NotContains(t, string(data), "p@ssw0rd123")
}

func TestSortSummaries(t *testing.T) {
	s := []Summary{{Service: "gmail"}, {Service: "aws"}, {Service: "github"}}
	SortSummaries(s)
	assert.Equal(t, []string{"aws", "github", "gmail"}, services(s))
}

func TestErrorMessages(t *testing.T) {
	err := newError(KindServiceNotFound, "gmail", nil)
	assert.Equal(t, `service not found: "gmail"`, err.Error())

	err = newError(KindPersistence, "", errors.New("disk full"))
	assert.Equal(t, "vault persistence failed: disk full", err.Error())

	assert.Equal(t, Kind(0), KindOf(errors.New("other")))
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
