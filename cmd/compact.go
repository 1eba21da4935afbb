package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/storage"
)

// Compact reclaims unused space in backends that support it
func (a *App) Compact() error {
	backend, err := a.openExisting()
	if err != nil {
		return err
	}
	defer backend.Close()

	compacter, ok := backend.(storage.Compacter)
	if !ok {
		fmt.Fprintf(a.Out, "Nothing to compact for the %s backend\n", a.Config.Backend)
		return nil
	}

	// Get file size before
	info, err := os.Stat(backend.Path())
	if err != nil {
		return err
	}
	sizeBefore := info.Size()

	if err := compacter.Compact(); err != nil {
		return err
	}

	// Get file size after
	info, err = os.Stat(backend.Path())
	if err != nil {
		return err
	}
	sizeAfter := info.Size()

	a.Log.Debugw("compacted storage", "path", backend.Path(), "before", sizeBefore, "after", sizeAfter)
	fmt.Fprintf(a.Out, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}
