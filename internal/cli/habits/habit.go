package habits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/constants"
	qerrors "github.com/julianstephens/questlog/internal/errors"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
	"github.com/julianstephens/questlog/internal/validation"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	Edit     HabitEditCmd     `cmd:"" help:"Edit an existing habit."`
	List     HabitListCmd     `cmd:"" help:"List habits."`
	Delete   HabitDeleteCmd   `cmd:"" help:"Deactivate a habit. Its history is kept."`
	Complete HabitCompleteCmd `cmd:"" aliases:"done" help:"Record a habit completion."`
}

type HabitAddCmd struct {
	Name       string `arg:"" help:"Habit name."`
	Category   string `short:"c" help:"Category (health|learning|productivity|self-care|social)." required:""`
	Type       string `short:"t" help:"Habit type (good|bad)." default:"good"`
	Exp        int    `short:"x" help:"Base experience value (5-50)." default:"20"`
	Difficulty string `short:"d" help:"Difficulty (easy|medium|hard)." default:"medium"`
	Notes      string `short:"n" help:"Free-form notes."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}

	habit := models.Habit{
		ID:         uuid.New().String(),
		ProfileID:  profile.ID,
		Name:       c.Name,
		Category:   constants.Category(c.Category),
		HabitType:  constants.HabitType(c.Type),
		ExpValue:   c.Exp,
		Difficulty: constants.Difficulty(c.Difficulty),
		Notes:      c.Notes,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	normalize(&habit)
	validation.ApplyDefaults(&habit)

	existing, err := ctx.Store.GetHabits(profile.ID, false)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	if err := validation.ValidateNewHabit(habit, existing); err != nil {
		return reportInvalid(ctx, err)
	}

	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}
	ctx.Analytics().Invalidate(context.Background(), profile.ID)
	ctx.Printf("Added %s habit: %s (%s, %d exp, %s)\n",
		habit.HabitType, habit.Name, habit.Category, habit.ExpValue, habit.Difficulty)
	return nil
}

type HabitEditCmd struct {
	Habit      string `arg:"" help:"Habit name or ID."`
	Name       string `help:"New name."`
	Category   string `short:"c" help:"New category."`
	Type       string `short:"t" help:"New habit type."`
	Exp        int    `short:"x" help:"New base experience value (5-50)."`
	Difficulty string `short:"d" help:"New difficulty."`
	Notes      string `short:"n" help:"New notes."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(profile.ID, c.Habit)
	if err != nil {
		return err
	}

	if c.Name != "" {
		habit.Name = c.Name
	}
	if c.Category != "" {
		habit.Category = constants.Category(c.Category)
	}
	if c.Type != "" {
		habit.HabitType = constants.HabitType(c.Type)
	}
	if c.Exp != 0 {
		habit.ExpValue = c.Exp
	}
	if c.Difficulty != "" {
		habit.Difficulty = constants.Difficulty(c.Difficulty)
	}
	if c.Notes != "" {
		habit.Notes = c.Notes
	}
	normalize(&habit)

	existing, err := ctx.Store.GetHabits(profile.ID, false)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	if err := validation.ValidateNewHabit(habit, existing); err != nil {
		return reportInvalid(ctx, err)
	}

	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}
	ctx.Analytics().Invalidate(context.Background(), profile.ID)
	ctx.Printf("Updated habit: %s\n", habit.Name)
	return nil
}

type HabitListCmd struct {
	All     bool `short:"a" help:"Include deactivated habits."`
	ShowIDs bool `help:"Show habit IDs." name:"show-ids"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	habits, err := ctx.Store.GetHabits(profile.ID, c.All)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	if len(habits) == 0 {
		ctx.Println("No habits found. Add one with 'questlog habit add'.")
		return nil
	}

	ctx.Println(cli.Title("Habits"))
	for _, h := range habits {
		marker := "+"
		if !h.IsGood() {
			marker = "-"
		}
		status := ""
		if !h.IsActive {
			status = " [INACTIVE]"
		}
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", h.ID)
		}
		reward := progression.CalculateReward(h)
		ctx.Printf("  [%s] %s%s%s - %s, %s, %s, streak %d (best %d)\n",
			marker, h.Name, idStr, status, h.Category, h.Difficulty,
			cli.ExpDelta(reward.SignedTotal), h.Streak, h.BestStreak)
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(profile.ID, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeactivateHabit(habit.ID); err != nil {
		return err
	}
	ctx.Analytics().Invalidate(context.Background(), profile.ID)
	ctx.Printf("Deactivated habit: %s\n", habit.Name)
	return nil
}

type HabitCompleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Notes string `short:"n" help:"Optional note for this completion."`
	ID    string `name:"completion-id" help:"Completion ID. Reuse it to retry a failed completion safely."`
}

func (c *HabitCompleteCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Profile()
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(profile.ID, c.Habit)
	if err != nil {
		return err
	}

	res, err := ctx.Updater(cli.NewFeedback(ctx)).CompleteHabit(progression.CompleteRequest{
		CompletionID: c.ID,
		ProfileID:    profile.ID,
		HabitID:      habit.ID,
		Notes:        c.Notes,
	})
	if err != nil {
		var cerr *progression.CompletionError
		if errors.As(err, &cerr) && cerr.Retryable() {
			return fmt.Errorf("%w\nNothing was saved. Retry with: questlog habit complete %q --completion-id %s",
				err, c.Habit, cerr.CompletionID)
		}
		if errors.Is(err, progression.ErrHabitInactive) || errors.Is(err, progression.ErrCompletionIDMismatch) {
			return qerrors.Refused(err)
		}
		return err
	}

	if res.Replayed {
		ctx.Println(cli.Muted("Completion already recorded; nothing changed."))
	}
	p := res.Profile
	ctx.Printf("%s  Level %d  %s  %s\n", res.Habit.Name, p.CharacterLevel, cli.ExpBar(p, 20), cli.Coins(p.Coins))
	if res.Habit.IsGood() {
		ctx.Printf("Streak: %d day(s)\n", res.Habit.Streak)
	}
	return nil
}

func normalize(h *models.Habit) {
	if c, err := validation.ParseCategory(string(h.Category)); err == nil {
		h.Category = c
	}
	if t, err := validation.ParseHabitType(string(h.HabitType)); err == nil {
		h.HabitType = t
	}
	if d, err := validation.ParseDifficulty(string(h.Difficulty)); err == nil {
		h.Difficulty = d
	}
}

func reportInvalid(ctx *cli.Context, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		ctx.Print(verr.FormatReport())
		return qerrors.Refused(err)
	}
	return err
}
