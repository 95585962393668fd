package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/questlog/internal/backup"
	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/storage/sqlite"
)

type InitCmd struct {
	Force    bool `help:"Delete an existing SQLite database before initialization."`
	NoBackup bool `help:"Skip the backup taken before --force deletes the database."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if _, ok := ctx.Store.(*sqlite.Store); !ok {
			return fmt.Errorf("--force is only supported for SQLite storage")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if !c.NoBackup {
				saved, err := backup.NewManager(dbPath).Create()
				if err != nil {
					return fmt.Errorf("failed to back up existing database: %w", err)
				}
				ctx.Printf("Backed up existing database to: %s\n", saved)
			}
			for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
				if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized questlog storage at: %s\n", ctx.Store.GetConfigPath())

	items, err := ctx.Store.GetCatalog()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	ctx.Printf("Catalog ready with %d items. Next: questlog auth signup\n", len(items))
	return nil
}
