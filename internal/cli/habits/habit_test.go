package habits

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/questlog/internal/cache"
	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/cli/clitest"
	qerrors "github.com/julianstephens/questlog/internal/errors"
	"github.com/julianstephens/questlog/internal/progression"
	"github.com/julianstephens/questlog/internal/validation"
)

func TestHabitAddCmd(t *testing.T) {
	ctx, out, profile := clitest.SignedIn(t)

	cmd := &HabitAddCmd{Name: "Morning Run", Category: "Health", Type: "good", Exp: 30, Difficulty: "hard"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out.String(), "Added good habit: Morning Run (health, 30 exp, hard)") {
		t.Errorf("output = %q", out.String())
	}

	h, err := ctx.Store.GetHabitByName(profile.ID, "morning run")
	if err != nil {
		t.Fatalf("habit not stored: %v", err)
	}
	if h.ExpValue != 30 || !h.IsActive || h.ProfileID != profile.ID {
		t.Errorf("stored habit = %+v", h)
	}
}

func TestHabitAddCmdRejectsInvalid(t *testing.T) {
	ctx, out, _ := clitest.SignedIn(t)

	tests := []struct {
		name string
		cmd  HabitAddCmd
		want validation.IssueType
	}{
		{name: "exp out of range", cmd: HabitAddCmd{Name: "Read", Category: "learning", Type: "good", Exp: 80, Difficulty: "easy"}, want: validation.IssueExpOutOfRange},
		{name: "unknown category", cmd: HabitAddCmd{Name: "Read", Category: "chores", Type: "good", Exp: 20, Difficulty: "easy"}, want: validation.IssueInvalidCategory},
		{name: "bad type", cmd: HabitAddCmd{Name: "Read", Category: "learning", Type: "meh", Exp: 20, Difficulty: "easy"}, want: validation.IssueInvalidHabitType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := tt.cmd.Run(ctx)
			var verr *validation.Error
			if !errors.As(err, &verr) || !verr.Has(tt.want) {
				t.Fatalf("add error = %v, want %s", err, tt.want)
			}
			if qerrors.ExitCode(err) != qerrors.ExitRefused {
				t.Errorf("exit code = %d, want %d", qerrors.ExitCode(err), qerrors.ExitRefused)
			}
			if !strings.Contains(out.String(), "Habit definition has problems") {
				t.Errorf("report not printed: %q", out.String())
			}
		})
	}
}

func TestHabitAddCmdDuplicateName(t *testing.T) {
	ctx, _, _ := clitest.SignedIn(t)

	add := &HabitAddCmd{Name: "Read", Category: "learning", Type: "good", Exp: 20, Difficulty: "easy"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	add.Name = "READ"
	var verr *validation.Error
	if err := add.Run(ctx); !errors.As(err, &verr) || !verr.Has(validation.IssueDuplicateName) {
		t.Errorf("duplicate add error = %v", err)
	}
}

func TestHabitCompleteCmd(t *testing.T) {
	ctx, out, profile := clitest.SignedIn(t)

	add := &HabitAddCmd{Name: "Read", Category: "learning", Type: "good", Exp: 20, Difficulty: "easy"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	out.Reset()

	done := &HabitCompleteCmd{Habit: "read", Notes: "ch. 1", ID: "c-1"}
	if err := done.Run(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !strings.Contains(out.String(), "+20 EXP") || !strings.Contains(out.String(), "First Quest") {
		t.Errorf("output = %q", out.String())
	}

	stored, _ := ctx.Store.GetProfile(profile.ID)
	if stored.TotalExp != 20 || stored.Coins != profile.Coins+5 {
		t.Errorf("profile after completion = exp %d coins %d", stored.TotalExp, stored.Coins)
	}

	out.Reset()
	if err := done.Run(ctx); err != nil {
		t.Fatalf("replayed complete failed: %v", err)
	}
	if !strings.Contains(out.String(), "already recorded") {
		t.Errorf("replay output = %q", out.String())
	}
	if again, _ := ctx.Store.GetProfile(profile.ID); again.TotalExp != 20 {
		t.Errorf("replay changed TotalExp to %d", again.TotalExp)
	}
	if err := (&HabitAddCmd{Name: "Run", Category: "health", Type: "good", Exp: 20, Difficulty: "easy"}).Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	err := (&HabitCompleteCmd{Habit: "Run", ID: "c-1"}).Run(ctx)
	if !errors.Is(err, progression.ErrCompletionIDMismatch) || qerrors.ExitCode(err) != qerrors.ExitRefused {
		t.Errorf("reusing completion id for another habit = %v (exit %d)", err, qerrors.ExitCode(err))
	}
	if again, _ := ctx.Store.GetProfile(profile.ID); again.TotalExp != 20 {
		t.Errorf("reused id changed TotalExp to %d", again.TotalExp)
	}
}

func TestHabitDeleteCmd(t *testing.T) {
	ctx, out, profile := clitest.SignedIn(t)

	add := &HabitAddCmd{Name: "Doomscroll", Category: "self-care", Type: "bad", Exp: 10, Difficulty: "easy"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := (&HabitDeleteCmd{Habit: "Doomscroll"}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	habits, _ := ctx.Store.GetHabits(profile.ID, true)
	if len(habits) != 1 || habits[0].IsActive {
		t.Fatalf("habits after delete = %+v", habits)
	}

	err := (&HabitCompleteCmd{Habit: habits[0].ID}).Run(ctx)
	if !errors.Is(err, progression.ErrHabitInactive) || qerrors.ExitCode(err) != qerrors.ExitRefused {
		t.Errorf("completing a deleted habit = %v", err)
	}

	out.Reset()
	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No habits found") {
		t.Errorf("list without --all = %q", out.String())
	}
	out.Reset()
	if err := (&HabitListCmd{All: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Doomscroll") || !strings.Contains(out.String(), "[INACTIVE]") {
		t.Errorf("list --all = %q", out.String())
	}
}

func TestHabitEditCmd(t *testing.T) {
	ctx, _, profile := clitest.SignedIn(t)

	add := &HabitAddCmd{Name: "Stretch", Category: "health", Type: "good", Exp: 10, Difficulty: "easy"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	edit := &HabitEditCmd{Habit: "stretch", Name: "Yoga", Exp: 25}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	h, err := ctx.Store.GetHabitByName(profile.ID, "Yoga")
	if err != nil || h.ExpValue != 25 || h.Category != "health" {
		t.Errorf("edited habit = %+v, %v", h, err)
	}

	if err := (&HabitEditCmd{Habit: "Yoga", Exp: 99}).Run(ctx); err == nil {
		t.Error("edit accepted exp 99")
	}
	if err := (&HabitEditCmd{Habit: "Pilates", Name: "x"}).Run(ctx); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("editing missing habit = %v", err)
	}
}

// deleteRecorder is a cache.Cache that never hits and records deleted keys.
type deleteRecorder struct {
	deleted []string
}

func (d *deleteRecorder) Get(context.Context, string, any) (bool, error) { return false, nil }

func (d *deleteRecorder) Set(context.Context, string, any, time.Duration) error { return nil }

func (d *deleteRecorder) Delete(_ context.Context, keys ...string) error {
	d.deleted = append(d.deleted, keys...)
	return nil
}

func TestHabitWritesInvalidateReport(t *testing.T) {
	ctx, _, profile := clitest.SignedIn(t)
	rec := &deleteRecorder{}
	ctx.Cache = rec
	key := cache.Key("report", profile.ID)

	tests := []struct {
		name string
		cmd  interface{ Run(*cli.Context) error }
	}{
		{name: "add", cmd: &HabitAddCmd{Name: "Stretch", Category: "health", Type: "good", Exp: 10, Difficulty: "easy"}},
		{name: "edit", cmd: &HabitEditCmd{Habit: "Stretch", Category: "self-care"}},
		{name: "delete", cmd: &HabitDeleteCmd{Habit: "Stretch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.deleted = nil
			if err := tt.cmd.Run(ctx); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if !slices.Contains(rec.deleted, key) {
				t.Errorf("deleted keys = %v, want %q", rec.deleted, key)
			}
		})
	}

	rec.deleted = nil
	if err := (&HabitDeleteCmd{Habit: "Missing"}).Run(ctx); err == nil {
		t.Fatal("deleting a missing habit succeeded")
	}
	if len(rec.deleted) != 0 {
		t.Errorf("failed delete invalidated %v", rec.deleted)
	}
}
