package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/questlog/internal/cache"
	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/cli/auth"
	"github.com/julianstephens/questlog/internal/cli/character"
	"github.com/julianstephens/questlog/internal/cli/habits"
	"github.com/julianstephens/questlog/internal/cli/items"
	"github.com/julianstephens/questlog/internal/cli/system"
	"github.com/julianstephens/questlog/internal/config"
	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/errors"
	"github.com/julianstephens/questlog/internal/logger"
	"github.com/julianstephens/questlog/internal/metrics"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" env:"QUESTLOG_CONFIG"`
	DB      string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL credentials must NOT be embedded; use the OS keyring, QUESTLOG_DB_CONNECTION or .pgpass instead." name:"db"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init         system.InitCmd            `cmd:"" help:"Initialize questlog storage."`
	Migrate      system.MigrateCmd         `cmd:"" help:"Run database migrations."`
	Auth         auth.AuthCmd              `cmd:"" help:"Manage your account and session."`
	Habit        habits.HabitCmd           `cmd:"" help:"Manage and complete habits."`
	Profile      character.ProfileCmd      `cmd:"" default:"1" help:"Show your character."`
	Shop         items.ShopCmd             `cmd:"" help:"Buy and equip character items."`
	Stats        character.StatsCmd        `cmd:"" help:"Show completion analytics."`
	Achievements character.AchievementsCmd `cmd:"" help:"List earned achievements."`
	Metrics      system.MetricsCmd         `cmd:"" help:"Export Prometheus metrics."`
	Backup       system.BackupCmd          `cmd:"" help:"Snapshot and restore the SQLite database."`
	Doctor       system.DoctorCmd          `cmd:"" help:"Run health checks."`
	Inspect      system.DebugCmd           `cmd:"" help:"Dump internal state as JSON."`
	Conf         system.ConfigCmd          `cmd:"" name:"config" help:"Manage connection settings."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Gamified habit tracker: earn EXP, level up, unlock gear"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configPath := CLI.Config
	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Log.Debug,
		ConfigDir: config.Home(),
		Level:     cfg.Log.Level,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	location, source, err := cli.ResolveStorage(CLI.DB, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s\n", errors.Format(err))
		os.Exit(errors.ExitFailure)
	}
	store, err := cli.OpenStore(location)
	if err != nil {
		errors.Fatal(err)
	}
	logger.Debug("Storage selected", "source", source, "location", store.GetConfigPath())

	appCtx := &cli.Context{
		Store:      store,
		Config:     cfg,
		ConfigPath: configPath,
		Metrics:    metrics.New(),
	}

	if cfg.Cache.RedisURL != "" {
		rc, err := cache.Connect(context.Background(), cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("Report cache disabled", "error", err)
		} else {
			appCtx.Cache = rc
			defer rc.Close()
		}
	}

	// These handle their own loading.
	if sel := ctx.Selected(); sel != nil && sel.Name != "init" && sel.Name != "restore" && sel.Name != "doctor" {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close storage", "error", cerr)
	}
	if err != nil {
		errors.Fatal(err)
	}
}
