package system

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage/postgres"
)

type DebugCmd struct {
	DBPath      DebugDBPathCmd      `cmd:"" name:"db-path" help:"Show the database location."`
	DumpProfile DebugDumpProfileCmd `cmd:"" help:"Dump the signed-in profile as JSON."`
	DumpHabit   DebugDumpHabitCmd   `cmd:"" help:"Dump a habit and its recent logs as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(b))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	loc := ctx.Store.GetConfigPath()
	if _, ok := ctx.Store.(*postgres.Store); ok {
		loc = postgres.Redact(loc)
	}
	return printJSON(ctx, map[string]string{"path": loc})
}

type DebugDumpProfileCmd struct{}

func (cmd *DebugDumpProfileCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Profile()
	if err != nil {
		return err
	}
	return printJSON(ctx, p)
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	Days  int    `help:"Include logs from the last N days." default:"30"`
}

type habitDump struct {
	Habit models.Habit      `json:"habit"`
	Logs  []models.HabitLog `json:"logs"`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	if cmd.Days < 0 {
		return fmt.Errorf("--days must not be negative")
	}
	p, err := ctx.Profile()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(p.ID, cmd.Habit)
	if err != nil {
		return err
	}

	since := time.Now().AddDate(0, 0, -cmd.Days)
	all, err := ctx.Store.GetHabitLogs(p.ID, since)
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	dump := habitDump{Habit: h, Logs: []models.HabitLog{}}
	for _, l := range all {
		if l.HabitID == h.ID {
			dump.Logs = append(dump.Logs, l)
		}
	}
	return printJSON(ctx, dump)
}
