package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/vault"
)

// List shows every stored service with its username, without passwords
func (a *App) List() error {
	v, password, source, err := a.unlock()
	if err != nil {
		return err
	}
	defer v.Close()
	defer crypto.ClearBytes(password)

	summaries := v.List()
	if len(summaries) == 0 {
		fmt.Fprintln(a.Out, "No passwords saved yet")
		return nil
	}
	vault.SortSummaries(summaries)

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tUSERNAME\tLAST MODIFIED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Service, s.Username, s.LastModified.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if source == SourcePrompt {
		a.OfferToSavePassword(v.ID(), password)
	}
	return nil
}
