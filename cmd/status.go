package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/illarion/passvault/internal/git"
	"github.com/illarion/passvault/internal/keyring"
	"github.com/illarion/passvault/internal/storage"
	"github.com/illarion/passvault/internal/vault"
)

// Status shows vault metadata. No password is required.
func (a *App) Status() error {
	path := a.Config.VaultPath

	// Stat first: opening a bolt backend would create the file
	stat, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(a.Out, "No vault found at %s\n", path)
		fmt.Fprintln(a.Out, "Run 'passvault init' to create one")
		return nil
	}
	if err != nil {
		return err
	}

	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	info, err := vault.Inspect(backend)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Vault:    %s (%s, %s)\n", path, a.Config.Backend, formatSize(stat.Size()))
	fmt.Fprintf(a.Out, "ID:       %s\n", info.ID)
	fmt.Fprintf(a.Out, "Records:  %d\n", info.Records)
	fmt.Fprintf(a.Out, "Created:  %s\n", info.Created.Local().Format(time.RFC3339))
	fmt.Fprintf(a.Out, "Modified: %s\n", info.Modified.Local().Format(time.RFC3339))
	fmt.Fprintf(a.Out, "KDF:      argon2id t=%d m=%d KiB p=%d\n", info.Params.Time, info.Params.Memory, info.Params.Threads)

	if stamper, ok := backend.(storage.Stamper); ok {
		if written, err := stamper.LastWrite(); err == nil {
			fmt.Fprintf(a.Out, "Written:  %s\n", written.Local().Format(time.RFC3339))
		}
	}

	switch stored, err := keyring.HasPassword(info.ID); {
	case err != nil:
		fmt.Fprintf(a.Out, "Keyring:  unavailable (%s)\n", err)
	case stored:
		fmt.Fprintln(a.Out, "Keyring:  password stored")
	default:
		fmt.Fprintln(a.Out, "Keyring:  not stored")
	}

	fmt.Fprint(a.Out, git.FormatVaultStatus(git.CheckVault(path), path))
	return nil
}
