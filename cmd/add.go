package cmd

import (
	"fmt"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/genpass"
)

// AddOptions are the arguments of the add command
type AddOptions struct {
	Service  string
	Username string
	Generate bool
	Length   int
	Special  bool
}

// Add stores a credential, replacing any existing one for the same service.
// The vault is created on first use.
func (a *App) Add(opts AddOptions) error {
	if opts.Service == "" {
		return fmt.Errorf("%w: add requires --service", ErrUsage)
	}

	var secret string
	if opts.Generate {
		var err error
		secret, err = genpass.Generate(opts.Length, opts.Special)
		if err != nil {
			return err
		}
	}

	v, password, err := a.unlockOrCreate()
	if err != nil {
		return err
	}
	defer v.Close()
	defer crypto.ClearBytes(password)

	if !opts.Generate {
		secret, err = a.readSecret(fmt.Sprintf("Password for %s: ", opts.Service))
		if err != nil {
			return err
		}
	}

	if err := v.Add(opts.Service, opts.Username, secret); err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "✓ Stored %s\n", opts.Service)
	if opts.Generate {
		fmt.Fprintf(a.Out, "Generated password: %s\n", secret)
	}
	return nil
}
