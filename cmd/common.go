package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/illarion/passvault/internal/config"
	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/keyring"
	"github.com/illarion/passvault/internal/prompt"
	"github.com/illarion/passvault/internal/storage"
	"github.com/illarion/passvault/internal/vault"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown
var ErrUsage = errors.New("usage")

var errNoPassword = errors.New("no password available: set PASSVAULT_PASSWORD or run in a terminal")

// isTerminal is replaced in tests
var isTerminal = prompt.IsTerminal

// PasswordSource records where the master password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// App carries the configuration and I/O shared by all commands
type App struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	Out    io.Writer
	In     io.Reader
}

func (a *App) vaultOptions() []vault.Option {
	return []vault.Option{
		vault.WithLogger(a.Log),
		vault.WithParams(a.Config.KDFParams()),
	}
}

func (a *App) openBackend() (storage.Backend, error) {
	backend, err := storage.Open(a.Config.Backend, a.Config.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", a.Config.VaultPath, err)
	}
	a.Log.Debugw("opened storage", "backend", a.Config.Backend, "path", a.Config.VaultPath)
	return backend, nil
}

// openExisting opens the backend only if the vault is already on disk.
// Opening a bolt backend creates its file, which must not happen on paths
// that only read the vault.
func (a *App) openExisting() (storage.Backend, error) {
	_, err := os.Stat(a.Config.VaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &vault.Error{Kind: vault.KindNotInitialized}
	}
	if err != nil {
		return nil, err
	}
	return a.openBackend()
}

// envPassword returns a copy of PASSVAULT_PASSWORD, or nil if unset.
// The caller is responsible for calling crypto.ClearBytes on the result.
func (a *App) envPassword() []byte {
	if a.Config.Password == "" {
		return nil
	}
	return []byte(a.Config.Password)
}

// newPassword gets the password for a vault that is about to be created:
// environment first, then a prompt with confirmation
func (a *App) newPassword() ([]byte, error) {
	if password := a.envPassword(); password != nil {
		return password, nil
	}
	if !isTerminal() {
		return nil, errNoPassword
	}
	return prompt.ReadPasswordConfirm("Enter new master password: ")
}

// unlock opens the existing vault. The password is tried from the
// environment, then the OS keyring, then a terminal prompt. A keyring
// entry that no longer matches the vault is removed.
// The caller must Close the vault and clear the returned password.
func (a *App) unlock() (*vault.Vault, []byte, PasswordSource, error) {
	backend, err := a.openExisting()
	if err != nil {
		return nil, nil, 0, err
	}

	v, password, source, err := a.unlockBackend(backend)
	if err != nil {
		backend.Close()
		return nil, nil, 0, err
	}
	return v, password, source, nil
}

func (a *App) unlockBackend(backend storage.Backend) (*vault.Vault, []byte, PasswordSource, error) {
	if password := a.envPassword(); password != nil {
		v, err := vault.Open(backend, password, a.vaultOptions()...)
		if err != nil {
			crypto.ClearBytes(password)
			return nil, nil, 0, err
		}
		return v, password, SourceEnv, nil
	}

	info, err := vault.Inspect(backend)
	if err != nil {
		return nil, nil, 0, err
	}

	if password, err := keyring.GetPassword(info.ID); err == nil {
		v, err := vault.Open(backend, password, a.vaultOptions()...)
		if err == nil {
			a.Log.Debugw("unlocked with keyring password", "vault_id", info.ID)
			return v, password, SourceKeyring, nil
		}
		crypto.ClearBytes(password)
		if !errors.Is(err, vault.ErrDecryption) {
			return nil, nil, 0, err
		}
		fmt.Fprintln(os.Stderr, "warning: password in keyring does not match, removing it")
		if err := keyring.DeletePassword(info.ID); err != nil {
			a.Log.Warnw("failed to remove stale keyring entry", "vault_id", info.ID, "error", err)
		}
	} else if !keyring.IsNotFound(err) {
		a.Log.Debugw("keyring unavailable", "error", err)
	}

	if !isTerminal() {
		return nil, nil, 0, errNoPassword
	}
	password, err := prompt.ReadPassword("Enter master password: ")
	if err != nil {
		return nil, nil, 0, err
	}
	v, err := vault.Open(backend, password, a.vaultOptions()...)
	if err != nil {
		crypto.ClearBytes(password)
		return nil, nil, 0, err
	}
	return v, password, SourcePrompt, nil
}

// unlockOrCreate behaves like unlock, but creates the vault on first run
func (a *App) unlockOrCreate() (*vault.Vault, []byte, error) {
	backend, err := a.openBackend()
	if err != nil {
		return nil, nil, err
	}

	exists, err := backend.Exists()
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	if exists {
		v, password, _, err := a.unlockBackend(backend)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		return v, password, nil
	}

	fmt.Fprintf(os.Stderr, "No vault at %s, creating one\n", a.Config.VaultPath)
	password, err := a.newPassword()
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	v, err := vault.Create(backend, password, a.vaultOptions()...)
	if err != nil {
		crypto.ClearBytes(password)
		backend.Close()
		return nil, nil, err
	}
	return v, password, nil
}

// readSecret reads a secret without echo on a terminal, or one line from In
func (a *App) readSecret(label string) (string, error) {
	if isTerminal() {
		secret, err := prompt.ReadPassword(label)
		if err != nil {
			return "", err
		}
		defer crypto.ClearBytes(secret)
		return string(secret), nil
	}

	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// OfferToSavePassword asks to store a prompted password in the OS keyring
func (a *App) OfferToSavePassword(vaultID string, password []byte) {
	if vaultID == "" || !isTerminal() {
		return
	}
	if !prompt.Confirm("Save password to OS keyring?", false) {
		return
	}
	if err := keyring.SavePassword(vaultID, password); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Fprintln(a.Out, "Password saved to keyring")
}

// HandleError prints err for the user and exits
func HandleError(err error) {
	switch vault.KindOf(err) {
	case vault.KindNotInitialized:
		fmt.Fprintf(os.Stderr, "Error: vault not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'passvault init' first\n")
	case vault.KindAlreadyExists:
		fmt.Fprintf(os.Stderr, "Error: vault already exists\n")
		fmt.Fprintf(os.Stderr, "Use 'passvault status' to see current state\n")
	case vault.KindDecryption:
		fmt.Fprintf(os.Stderr, "Error: wrong password or corrupted data\n")
	case vault.KindServiceNotFound:
		var verr *vault.Error
		errors.As(err, &verr)
		fmt.Fprintf(os.Stderr, "Error: service '%s' not found in vault\n", verr.Service)
	case vault.KindKeyDerivation:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Check PASSVAULT_KDF_* settings\n")
	case vault.KindPersistence:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The vault file was not changed\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
