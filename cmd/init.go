package cmd

import (
	"fmt"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/vault"
)

// Init creates a new empty vault
func (a *App) Init() error {
	backend, err := a.openBackend()
	if err != nil {
		return err
	}

	// Check before prompting so the user is not asked twice for nothing
	exists, err := backend.Exists()
	if err != nil {
		backend.Close()
		return err
	}
	if exists {
		backend.Close()
		return &vault.Error{Kind: vault.KindAlreadyExists}
	}

	password, err := a.newPassword()
	if err != nil {
		backend.Close()
		return err
	}
	defer crypto.ClearBytes(password)

	v, err := vault.Create(backend, password, a.vaultOptions()...)
	if err != nil {
		backend.Close()
		return err
	}
	defer v.Close()

	fmt.Fprintf(a.Out, "✓ Initialized vault at %s\n", v.Path())
	a.OfferToSavePassword(v.ID(), password)
	return nil
}
