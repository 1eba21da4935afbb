package cmd

import (
	"fmt"

	"github.com/illarion/passvault/internal/genpass"
)

// Generate prints a random password without touching the vault
func (a *App) Generate(length int, special bool) error {
	password, err := genpass.Generate(length, special)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, password)
	return nil
}
