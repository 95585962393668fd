package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/questlog/internal/logger"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/shop"
	"github.com/julianstephens/questlog/internal/storage"
)

var (
	// ErrHabitInactive is returned when completing a deactivated habit
	ErrHabitInactive = errors.New("habit is not active")
	// ErrHabitNotOwned is returned when the habit belongs to another profile
	ErrHabitNotOwned = errors.New("habit belongs to another profile")
	// ErrCompletionIDMismatch is returned when a completion id is reused
	// for a different habit or profile
	ErrCompletionIDMismatch = errors.New("completion id already used for another habit or profile")
)

// CompletionError reports which step of a completion failed. Nothing is
// persisted unless every step succeeds, so a retry with the same
// completion id is safe whenever Retryable is true.
type CompletionError struct {
	Step         string
	CompletionID string
	Err          error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("complete habit (%s): %v", e.Step, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the completion could succeed.
func (e *CompletionError) Retryable() bool {
	return !errors.Is(e.Err, storage.ErrNotFound) &&
		!errors.Is(e.Err, ErrHabitInactive) &&
		!errors.Is(e.Err, ErrHabitNotOwned) &&
		!errors.Is(e.Err, ErrCompletionIDMismatch)
}

// Outcome is the computed effect of one completion, before persistence.
type Outcome struct {
	Log      models.HabitLog
	Habit    models.Habit
	Profile  models.Profile
	Reward   Reward
	OldLevel int
	NewLevel int
	Unlocked []models.CharacterItem
}

// LeveledUp reports whether the completion raised the character level.
func (o Outcome) LeveledUp() bool {
	return o.NewLevel > o.OldLevel
}

// Apply computes the new habit, profile and log for completing habit.
// Every milestone level crossed grants its free catalog items.
func Apply(habit models.Habit, profile models.Profile, catalog []models.CharacterItem, logID, notes string, now time.Time) Outcome {
	reward := CalculateReward(habit)

	log := models.HabitLog{
		ID:          logID,
		ProfileID:   profile.ID,
		HabitID:     habit.ID,
		CompletedAt: now,
		ExpEarned:   reward.BaseExp,
		StreakBonus: reward.StreakBonus,
		Notes:       notes,
	}

	h := habit
	h.Streak = NextStreak(habit)
	h.BestStreak = max(h.Streak, habit.BestStreak)

	p := profile.Clone()
	oldLevel := profile.CharacterLevel
	ApplyTotalExp(&p, profile.TotalExp+int64(reward.SignedTotal))
	p.Coins += reward.CoinDelta

	var unlocked []models.CharacterItem
	for level := oldLevel + 1; level <= p.CharacterLevel; level++ {
		if !IsMilestoneLevel(level) {
			continue
		}
		var added []models.CharacterItem
		p, added = shop.MergeUnlocks(p, shop.FreeUnlockCheck(level, catalog))
		unlocked = append(unlocked, added...)
	}

	return Outcome{
		Log:      log,
		Habit:    h,
		Profile:  p,
		Reward:   reward,
		OldLevel: oldLevel,
		NewLevel: p.CharacterLevel,
		Unlocked: unlocked,
	}
}

// CompleteRequest identifies a completion to apply.
type CompleteRequest struct {
	// CompletionID becomes the log id. Callers that may retry should set
	// it; when empty a fresh id is generated.
	CompletionID string
	ProfileID    string
	HabitID      string
	Notes        string
}

// Result is what CompleteHabit returns for display.
type Result struct {
	Outcome
	Achievements []models.Achievement
	// Replayed is true when the completion id had already been applied and
	// the stored state was returned unchanged.
	Replayed bool
}

// Updater applies habit completions to stored state
type Updater struct {
	store        storage.Provider
	notifier     Notifier
	achievements []AchievementDef
	now          func() time.Time
	newID        func() string
}

// Option configures an Updater.
type Option func(*Updater)

// WithNotifier sets the event receiver.
func WithNotifier(n Notifier) Option {
	return func(u *Updater) { u.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

// WithIDGenerator overrides id generation for logs and achievements.
func WithIDGenerator(f func() string) Option {
	return func(u *Updater) { u.newID = f }
}

// WithAchievements replaces the achievement catalog.
func WithAchievements(defs []AchievementDef) Option {
	return func(u *Updater) { u.achievements = defs }
}

// NewUpdater creates an Updater backed by store.
func NewUpdater(store storage.Provider, opts ...Option) *Updater {
	u := &Updater{
		store:        store,
		achievements: AllAchievements(),
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CompleteHabit records one completion of a habit. The log, habit, profile
// and achievements are written in one storage transaction. Repeating a
// request with the same CompletionID returns the stored state without
// applying the reward twice or emitting events.
func (u *Updater) CompleteHabit(req CompleteRequest) (Result, error) {
	id := req.CompletionID
	if id == "" {
		id = u.newID()
	}
	fail := func(step string, err error) (Result, error) {
		return Result{}, &CompletionError{Step: step, CompletionID: id, Err: err}
	}

	if existing, err := u.store.GetHabitLog(id); err == nil {
		if !sameTarget(existing, req) {
			return fail("check log", ErrCompletionIDMismatch)
		}
		return u.replay(existing)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fail("check log", err)
	}

	habit, err := u.store.GetHabit(req.HabitID)
	if err != nil {
		return fail("load habit", err)
	}
	if habit.ProfileID != req.ProfileID {
		return fail("load habit", ErrHabitNotOwned)
	}
	if !habit.IsActive {
		return fail("load habit", ErrHabitInactive)
	}

	profile, err := u.store.GetProfile(req.ProfileID)
	if err != nil {
		return fail("load profile", err)
	}
	catalog, err := u.store.GetCatalog()
	if err != nil {
		return fail("load catalog", err)
	}

	now := u.now()
	out := Apply(habit, profile, catalog, id, req.Notes, now)

	count, err := u.store.CountHabitLogs(profile.ID)
	if err != nil {
		return fail("count logs", err)
	}
	earned, err := u.store.GetAchievements(profile.ID)
	if err != nil {
		return fail("load achievements", err)
	}
	stats := Stats{
		Completions:   count + 1,
		CurrentStreak: out.Habit.Streak,
		BestStreak:    out.Habit.BestStreak,
		Level:         out.Profile.CharacterLevel,
		Coins:         out.Profile.Coins,
		ItemsUnlocked: len(out.Profile.UnlockedItems),
		LoginStreak:   out.Profile.LoginStreak,
	}
	newAchievements := EvaluateAchievements(u.achievements, stats, earned, profile.ID, now, u.newID)

	err = u.store.ApplyCompletion(models.Completion{
		Log:          out.Log,
		Habit:        out.Habit,
		Profile:      out.Profile,
		Achievements: newAchievements,
	})
	if errors.Is(err, storage.ErrAlreadyApplied) {
		existing, lerr := u.store.GetHabitLog(id)
		if lerr != nil {
			return fail("check log", lerr)
		}
		if !sameTarget(existing, req) {
			return fail("check log", ErrCompletionIDMismatch)
		}
		return u.replay(existing)
	}
	if err != nil {
		logger.Error("Failed to persist completion", "completion", id, "habit", habit.ID, "error", err)
		return fail("persist", err)
	}

	logger.Info("Habit completed", "habit", habit.ID, "exp", out.Reward.SignedTotal, "level", out.NewLevel)
	u.emit(out, newAchievements)

	return Result{Outcome: out, Achievements: newAchievements}, nil
}

func sameTarget(log models.HabitLog, req CompleteRequest) bool {
	return log.ProfileID == req.ProfileID && log.HabitID == req.HabitID
}

func (u *Updater) replay(log models.HabitLog) (Result, error) {
	habit, err := u.store.GetHabit(log.HabitID)
	if err != nil {
		return Result{}, &CompletionError{Step: "replay", CompletionID: log.ID, Err: err}
	}
	profile, err := u.store.GetProfile(log.ProfileID)
	if err != nil {
		return Result{}, &CompletionError{Step: "replay", CompletionID: log.ID, Err: err}
	}
	logger.Debug("Completion already applied", "completion", log.ID)
	return Result{
		Outcome: Outcome{
			Log:      log,
			Habit:    habit,
			Profile:  profile,
			OldLevel: profile.CharacterLevel,
			NewLevel: profile.CharacterLevel,
		},
		Replayed: true,
	}, nil
}

func (u *Updater) emit(out Outcome, achievements []models.Achievement) {
	if u.notifier == nil {
		return
	}
	u.notifier.Notify(ExpGained{
		ProfileID: out.Profile.ID,
		HabitID:   out.Habit.ID,
		HabitType: out.Habit.HabitType,
		Amount:    out.Reward.SignedTotal,
	})
	if out.LeveledUp() {
		u.notifier.Notify(LevelUp{
			ProfileID: out.Profile.ID,
			OldLevel:  out.OldLevel,
			NewLevel:  out.NewLevel,
		})
	}
	if len(out.Unlocked) > 0 {
		u.notifier.Notify(ItemsUnlocked{
			ProfileID: out.Profile.ID,
			Level:     out.NewLevel,
			Items:     out.Unlocked,
		})
	}
	for _, a := range achievements {
		u.notifier.Notify(AchievementEarned{Achievement: a})
	}
}
