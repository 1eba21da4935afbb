package cmd

import (
	"errors"
	"fmt"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/keyring"
	"github.com/illarion/passvault/internal/prompt"
	"github.com/illarion/passvault/internal/vault"
)

// vaultID reads the vault ID without unlocking
func (a *App) vaultID() (string, error) {
	backend, err := a.openExisting()
	if err != nil {
		return "", err
	}
	defer backend.Close()

	info, err := vault.Inspect(backend)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// KeyringSave verifies the master password and saves it to the OS keyring
func (a *App) KeyringSave() error {
	backend, err := a.openExisting()
	if err != nil {
		return err
	}

	// The keyring itself is never the source here
	password := a.envPassword()
	if password == nil {
		if !isTerminal() {
			backend.Close()
			return errNoPassword
		}
		password, err = prompt.ReadPassword("Enter master password: ")
		if err != nil {
			backend.Close()
			return err
		}
	}
	defer crypto.ClearBytes(password)

	v, err := vault.Open(backend, password, a.vaultOptions()...)
	if err != nil {
		backend.Close()
		return err
	}
	defer v.Close()

	if err := keyring.SavePassword(v.ID(), password); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	fmt.Fprintln(a.Out, "Password saved to keyring")
	return nil
}

// KeyringDelete removes the password from the OS keyring
func (a *App) KeyringDelete() error {
	id, err := a.vaultID()
	if errors.Is(err, vault.ErrNotInitialized) {
		fmt.Fprintln(a.Out, "No password stored in keyring")
		return nil
	}
	if err != nil {
		return err
	}

	if err := keyring.DeletePassword(id); err != nil {
		if keyring.IsNotFound(err) {
			fmt.Fprintln(a.Out, "No password stored in keyring")
			return nil
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	fmt.Fprintln(a.Out, "Password removed from keyring")
	return nil
}

// KeyringStatus checks if a password is stored in the keyring
func (a *App) KeyringStatus() error {
	id, err := a.vaultID()
	if errors.Is(err, vault.ErrNotInitialized) {
		fmt.Fprintln(a.Out, "Password: not stored")
		return nil
	}
	if err != nil {
		return err
	}

	stored, err := keyring.HasPassword(id)
	if err != nil {
		return fmt.Errorf("failed to query keyring: %w", err)
	}
	if stored {
		fmt.Fprintln(a.Out, "Password: stored in keyring")
	} else {
		fmt.Fprintln(a.Out, "Password: not stored")
	}
	return nil
}
