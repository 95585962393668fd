package character

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/questlog/internal/cli"
)

type StatsCmd struct {
	JSON    bool `help:"Print the report as JSON."`
	Refresh bool `help:"Bypass the report cache."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}

	svc := ctx.Analytics()
	bg := context.Background()
	if c.Refresh {
		svc.Invalidate(bg, profile.ID)
	}
	report, err := svc.Report(bg, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if c.JSON {
		enc := json.NewEncoder(ctx.Stdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	ctx.Println(cli.Title("Today"))
	ctx.Printf("  %d of %d habits completed, %s\n",
		report.Today.Completed, report.Today.TotalPossible, cli.ExpDelta(report.Today.Exp))

	ctx.Println(cli.Title("Trends"))
	for _, w := range []struct {
		label string
		count int
		exp   int
		avg   int
		days  int
	}{
		{"Week", report.Week.Count, report.Week.Exp, report.Week.AvgPerDay, report.Week.Days},
		{"Month", report.Month.Count, report.Month.Exp, report.Month.AvgPerDay, report.Month.Days},
	} {
		ctx.Printf("  %-5s %3d completions over %d days (%d/day), %d EXP\n", w.label, w.count, w.days, w.avg, w.exp)
	}

	ctx.Println(cli.Title("Top habits"))
	if len(report.TopHabits) == 0 {
		ctx.Println(cli.Muted("  no active habits"))
	}
	for i, h := range report.TopHabits {
		ctx.Printf("  %d. %s (%s) - %d\n", i+1, h.Name, h.Category, h.Count)
	}

	ctx.Println(cli.Title("Categories"))
	for _, cat := range report.Categories {
		line := fmt.Sprintf("  %-13s %3d completions, %d EXP", cat.Category, cat.Count, cat.Exp)
		if cat.Count == 0 {
			line = cli.Muted(line)
		}
		ctx.Println(line)
	}
	return nil
}
