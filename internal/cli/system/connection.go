package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/keyring"
	"github.com/julianstephens/questlog/internal/storage/postgres"
)

type ConfigCmd struct {
	SetConnection   SetConnectionCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	ClearConnection ClearConnectionCmd `cmd:"" help:"Remove the stored connection string."`
	Show            ConfigShowCmd      `cmd:"" help:"Show the active configuration."`
}

// SetConnectionCmd stores database connection credentials in the OS keyring
type SetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *SetConnectionCmd) Run(ctx *cli.Context) error {
	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is the one place a password may live.
		ctx.Println("⚠️  Connection string contains a password; it will be stored in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}

	ctx.Println("✓ Connection string stored in OS keyring")
	ctx.Printf("  questlog will use it when --db is not set (%s)\n", postgres.Redact(cmd.ConnectionString))
	return nil
}

// ClearConnectionCmd removes database connection credentials from the OS keyring
type ClearConnectionCmd struct{}

func (cmd *ClearConnectionCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

type ConfigShowCmd struct{}

func (cmd *ConfigShowCmd) Run(ctx *cli.Context) error {
	ctx.Println(cli.Title("Configuration"))
	ctx.Printf("  Config file: %s\n", ctx.ConfigPath)
	ctx.Printf("  Storage:     %s\n", postgres.Redact(ctx.Store.GetConfigPath()))

	switch _, err := keyring.GetConnectionString(); {
	case err == nil:
		ctx.Println("  Keyring:     connection string stored")
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Println("  Keyring:     no connection string")
	default:
		ctx.Println("  Keyring:     unavailable")
	}
	if os.Getenv(constants.ConnectionEnvVar) != "" {
		ctx.Printf("  Environment: %s is set\n", constants.ConnectionEnvVar)
	}

	cache := "disabled"
	if ctx.Config.Cache.RedisURL != "" {
		cache = fmt.Sprintf("redis (ttl %s)", ctx.Config.Cache.TTL)
	}
	ctx.Printf("  Cache:       %s\n", cache)
	ctx.Printf("  Analytics:   top %d over %d days\n", ctx.Config.Analytics.TopN, ctx.Config.Analytics.WindowDays)
	ctx.Printf("  Metrics:     %s\n", ctx.Config.Metrics.Textfile)
	return nil
}
