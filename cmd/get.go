package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/crypto"
)

// Get prints the decrypted password for a service.
// Only the password goes to Out so the output can be piped.
func (a *App) Get(service string) error {
	if service == "" {
		return fmt.Errorf("%w: get requires --service", ErrUsage)
	}

	v, password, source, err := a.unlock()
	if err != nil {
		return err
	}
	defer v.Close()
	defer crypto.ClearBytes(password)

	secret, err := v.Get(service)
	if err != nil {
		return err
	}

	for _, s := range v.List() {
		if s.Service == service && s.Username != "" {
			fmt.Fprintf(os.Stderr, "Username: %s\n", s.Username)
		}
	}
	fmt.Fprintln(a.Out, secret)

	if source == SourcePrompt {
		a.OfferToSavePassword(v.ID(), password)
	}
	return nil
}
