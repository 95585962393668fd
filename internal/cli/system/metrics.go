package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/metrics"
)

type MetricsCmd struct {
	Export MetricsExportCmd `cmd:"" help:"Write Prometheus metrics to a node_exporter textfile."`
}

type MetricsExportCmd struct {
	Output string `short:"o" help:"Textfile path (defaults to [metrics] textfile)." type:"path"`
}

func (c *MetricsExportCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}

	habits, err := ctx.Store.GetHabits(profile.ID, true)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	logs, err := ctx.Store.GetHabitLogs(profile.ID, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to load habit logs: %w", err)
	}
	catalog, err := ctx.Store.GetCatalog()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	achievements, err := ctx.Store.GetAchievements(profile.ID)
	if err != nil {
		return fmt.Errorf("failed to load achievements: %w", err)
	}

	reg := metrics.New()
	reg.Backfill(profile, habits, logs, catalog, achievements)

	path := c.Output
	if path == "" {
		path = ctx.Config.Metrics.Textfile
	}
	if path == "" {
		return fmt.Errorf("no output path: pass --output or set [metrics] textfile")
	}
	if err := reg.WriteTextfile(path); err != nil {
		return err
	}
	ctx.Printf("✓ Wrote metrics for %d completions to %s\n", len(logs), path)
	return nil
}
