package system

import (
	"fmt"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/storage/postgres"
	"github.com/julianstephens/questlog/internal/storage/sqlite"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	logFn := func(msg string) { ctx.Println(msg) }

	var (
		count int
		err   error
	)
	switch store := ctx.Store.(type) {
	case *sqlite.Store:
		store.MigrationLog = logFn
		count, err = store.Migrate()
	case *postgres.Store:
		store.MigrationLog = logFn
		count, err = store.Migrate()
	default:
		return fmt.Errorf("migrate is not supported for %T", ctx.Store)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
