package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/questlog/internal/backup"
	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/identity"
	"github.com/julianstephens/questlog/internal/keyring"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
	"github.com/julianstephens/questlog/internal/storage/sqlite"
	"github.com/julianstephens/questlog/internal/validation"
)

type DoctorCmd struct{}

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
	checkSkip
)

type check struct {
	name string
	run  func(ctx *cli.Context) (checkStatus, error)
}

type pendingMigrator interface {
	PendingMigrations() (int, error)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	reachable := false
	checks := []check{
		{"Database reachable", func(ctx *cli.Context) (checkStatus, error) {
			if err := ctx.Store.Load(); err != nil {
				return checkFail, err
			}
			if _, err := ctx.Store.GetCatalog(); err != nil {
				return checkFail, fmt.Errorf("failed to query catalog: %w", err)
			}
			reachable = true
			return checkOK, nil
		}},
		{"Migrations complete", func(ctx *cli.Context) (checkStatus, error) {
			if !reachable {
				return checkSkip, fmt.Errorf("database not reachable")
			}
			return checkMigrations(ctx)
		}},
		{"Backups present", checkBackups},
		{"Profile consistent", func(ctx *cli.Context) (checkStatus, error) {
			if !reachable {
				return checkSkip, fmt.Errorf("database not reachable")
			}
			return checkProfile(ctx)
		}},
		{"OS keyring", checkKeyring},
		{"Report cache", checkCache},
		{"Clock/timezone", checkClock},
	}

	failed := false
	for _, c := range checks {
		status, err := c.run(ctx)
		switch status {
		case checkOK:
			ctx.Printf("✓ %s: OK\n", c.name)
		case checkWarn:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		case checkSkip:
			ctx.Printf("⊘ %s: SKIPPED (%v)\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			failed = true
		}
	}

	ctx.Println()
	if failed {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkMigrations(ctx *cli.Context) (checkStatus, error) {
	pm, ok := ctx.Store.(pendingMigrator)
	if !ok {
		return checkSkip, fmt.Errorf("storage has no migrations")
	}
	n, err := pm.PendingMigrations()
	if err != nil {
		return checkFail, err
	}
	if n > 0 {
		return checkFail, fmt.Errorf("%d pending migration(s), run 'questlog migrate'", n)
	}
	return checkOK, nil
}

func checkBackups(ctx *cli.Context) (checkStatus, error) {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return checkSkip, fmt.Errorf("not a SQLite database")
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return checkWarn, fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return checkWarn, fmt.Errorf("no backups found, create one with 'questlog backup create'")
	}
	return checkOK, nil
}

func checkProfile(ctx *cli.Context) (checkStatus, error) {
	p, err := ctx.Profile()
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) || errors.Is(err, identity.ErrSessionExpired) {
			return checkSkip, fmt.Errorf("not signed in")
		}
		return checkFail, err
	}
	if err := profileIssues(p); err != nil {
		return checkFail, err
	}

	habits, err := ctx.Store.GetHabits(p.ID, false)
	if err != nil {
		return checkFail, fmt.Errorf("failed to read habits: %w", err)
	}
	for _, h := range habits {
		if err := validation.ValidateHabit(h); err != nil {
			return checkFail, err
		}
	}
	return checkOK, nil
}

// profileIssues reports the first progression field that disagrees with
// TotalExp or the item lists.
func profileIssues(p models.Profile) error {
	if want := progression.Level(p.TotalExp); p.CharacterLevel != want {
		return fmt.Errorf("level %d does not match %d total EXP (want level %d)", p.CharacterLevel, p.TotalExp, want)
	}
	current, toNext := progression.ExpBand(p.TotalExp)
	if p.CurrentExp != current || p.ExpToNext != toNext {
		return fmt.Errorf("EXP band %d/%d does not match %d total EXP (want %d/%d)", p.CurrentExp, p.ExpToNext, p.TotalExp, current, toNext)
	}
	if p.Coins < 0 {
		return fmt.Errorf("coin balance is negative: %d", p.Coins)
	}
	for _, id := range p.EquippedItems {
		if !p.HasUnlocked(id) {
			return fmt.Errorf("item %q is equipped but not unlocked", id)
		}
	}
	return nil
}

func checkKeyring(*cli.Context) (checkStatus, error) {
	if !keyring.IsAvailable() {
		return checkWarn, fmt.Errorf("%w, sessions and connection strings cannot be stored", keyring.ErrKeyringUnavailable)
	}
	return checkOK, nil
}

func checkCache(ctx *cli.Context) (checkStatus, error) {
	if ctx.Config.Cache.RedisURL == "" {
		return checkSkip, fmt.Errorf("not configured")
	}
	if ctx.Cache == nil {
		return checkWarn, fmt.Errorf("configured but unreachable, reports are computed without it")
	}
	return checkOK, nil
}

func checkClock(*cli.Context) (checkStatus, error) {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return checkFail, fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		return checkWarn, fmt.Errorf("timezone is UTC, so streaks and daily logins roll over at UTC midnight")
	}
	return checkOK, nil
}
