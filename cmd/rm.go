package cmd

import (
	"fmt"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/prompt"
)

// Remove deletes the credential stored for a service
func (a *App) Remove(service string, force bool) error {
	if service == "" {
		return fmt.Errorf("%w: rm requires --service", ErrUsage)
	}

	v, password, _, err := a.unlock()
	if err != nil {
		return err
	}
	defer v.Close()
	defer crypto.ClearBytes(password)

	if !force && isTerminal() {
		if !prompt.Confirm(fmt.Sprintf("Remove %s?", service), false) {
			fmt.Fprintln(a.Out, "Aborted")
			return nil
		}
	}

	if err := v.Remove(service); err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "✓ Removed %s\n", service)
	return nil
}
