package commands

import (
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
)

// RestoreCmd implements the 'restore' command. Restoring is never automatic.
type RestoreCmd struct{}

func (r *RestoreCmd) Run(g *Global, root *CLI) error {
	store := root.store()
	release, err := store.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			g.Logger.Warn("Failed to release configuration lock", logfields.Error(rerr))
		}
	}()

	if err := store.Restore(); err != nil {
		return err
	}
	g.Console.Success("Restored %s from %s", store.Path(), store.BackupPath())
	return nil
}
