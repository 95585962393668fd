package storagetest

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

// Run exercises a storage.Provider against the behaviour every backend
// must share. newStore must return an initialized, empty-enough store;
// fixtures use random ids and emails so a shared database is fine.
func Run(t *testing.T, newStore func(t *testing.T) storage.Provider) {
	t.Run("profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("create account rolls back", func(t *testing.T) { testCreateAccountRollback(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("habits", func(t *testing.T) { testHabits(t, newStore(t)) })
	t.Run("catalog", func(t *testing.T) { testCatalog(t, newStore(t)) })
	t.Run("apply completion", func(t *testing.T) { testApplyCompletion(t, newStore(t)) })
	t.Run("apply completion rolls back", func(t *testing.T) { testApplyCompletionRollback(t, newStore(t)) })
	t.Run("habit logs window", func(t *testing.T) { testHabitLogsWindow(t, newStore(t)) })
}

func uniqueProfile() models.Profile {
	p := Profile()
	p.Email = "hero-" + uuid.NewString()[:8] + "@example.com"
	return p
}

func testProfiles(t *testing.T, s storage.Provider) {
	p := uniqueProfile()
	p.UnlockedItems = []string{"hat_cap", "shirt_tunic"}
	p.EquippedItems = []string{"hat_cap"}
	SeedProfile(t, s, p)

	got, err := s.GetProfile(p.ID)
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if got.CharacterLevel != 1 || got.ExpToNext != 100 || got.LastLogin != nil {
		t.Errorf("GetProfile() = %+v", got)
	}
	if !slices.Equal(got.UnlockedItems, p.UnlockedItems) || !slices.Equal(got.EquippedItems, p.EquippedItems) {
		t.Errorf("items = %v / %v, want %v / %v", got.UnlockedItems, got.EquippedItems, p.UnlockedItems, p.EquippedItems)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
	}

	login := Epoch.Add(time.Hour)
	got.TotalExp = -40
	got.CurrentExp = -40
	got.Coins = 15
	got.LoginStreak = 2
	got.LastLogin = &login
	if err := s.UpdateProfile(got); err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	again, err := s.GetProfile(p.ID)
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if again.TotalExp != -40 || again.Coins != 15 || again.LoginStreak != 2 {
		t.Errorf("updated profile = %+v", again)
	}
	if again.LastLogin == nil || !again.LastLogin.Equal(login) {
		t.Errorf("LastLogin = %v, want %v", again.LastLogin, login)
	}

	if err := s.AddProfile(p); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate AddProfile() error = %v, want ErrConflict", err)
	}
	if _, err := s.GetProfile("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile(missing) error = %v, want ErrNotFound", err)
	}
	ghost := Profile()
	if err := s.UpdateProfile(ghost); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateProfile(missing) error = %v, want ErrNotFound", err)
	}
}

func testAccounts(t *testing.T, s storage.Provider) {
	p := SeedProfile(t, s, uniqueProfile())
	acct := models.Account{
		ID:           uuid.NewString(),
		Email:        strings.ToUpper(p.Email),
		PasswordHash: "hash",
		ProfileID:    p.ID,
		CreatedAt:    Epoch,
	}
	if err := s.AddAccount(acct); err != nil {
		t.Fatalf("AddAccount() failed: %v", err)
	}

	got, err := s.GetAccountByEmail(p.Email)
	if err != nil {
		t.Fatalf("GetAccountByEmail() failed: %v", err)
	}
	if got.ProfileID != p.ID || got.PasswordHash != "hash" {
		t.Errorf("GetAccountByEmail() = %+v", got)
	}

	dup := acct
	dup.ID = uuid.NewString()
	dup.Email = strings.ToLower(p.Email)
	if err := s.AddAccount(dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}
	if _, err := s.GetAccountByEmail("nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetAccountByEmail(missing) error = %v, want ErrNotFound", err)
	}
}

func testCreateAccountRollback(t *testing.T, s storage.Provider) {
	p := uniqueProfile()
	acct := models.Account{
		ID:           uuid.NewString(),
		Email:        p.Email,
		PasswordHash: "hash",
		ProfileID:    p.ID,
		CreatedAt:    Epoch,
	}
	if err := s.CreateAccount(p, acct); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	if got, err := s.GetAccountByEmail(p.Email); err != nil || got.ProfileID != p.ID {
		t.Fatalf("GetAccountByEmail() = %+v, %v", got, err)
	}

	orphan := uniqueProfile()
	dup := acct
	dup.ID = uuid.NewString()
	dup.ProfileID = orphan.ID
	if err := s.CreateAccount(orphan, dup); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("CreateAccount(duplicate email) error = %v, want ErrConflict", err)
	}
	if _, err := s.GetProfile(orphan.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("profile left behind after failed CreateAccount: %v", err)
	}
}

func testSessions(t *testing.T, s storage.Provider) {
	p := SeedProfile(t, s, uniqueProfile())
	sess := models.Session{
		Token:     uuid.NewString(),
		ProfileID: p.ID,
		CreatedAt: Epoch,
		ExpiresAt: Epoch.Add(constants.SessionTTL),
	}
	if err := s.AddSession(sess); err != nil {
		t.Fatalf("AddSession() failed: %v", err)
	}

	sess.ExpiresAt = sess.ExpiresAt.Add(24 * time.Hour)
	if err := s.UpdateSession(sess); err != nil {
		t.Fatalf("UpdateSession() failed: %v", err)
	}
	got, err := s.GetSession(sess.Token)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if !got.ExpiresAt.Equal(sess.ExpiresAt) || got.ProfileID != p.ID {
		t.Errorf("GetSession() = %+v, want expiry %v", got, sess.ExpiresAt)
	}

	if err := s.DeleteSession(sess.Token); err != nil {
		t.Fatalf("DeleteSession() failed: %v", err)
	}
	if _, err := s.GetSession(sess.Token); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSession(sess.Token); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteSession() error = %v, want ErrNotFound", err)
	}
}

func testHabits(t *testing.T, s storage.Provider) {
	p := SeedProfile(t, s, uniqueProfile())
	run := Habit(p.ID, "Morning run", constants.HabitGood)
	snack := Habit(p.ID, "Late snack", constants.HabitBad)
	snack.CreatedAt = Epoch.Add(time.Minute)
	snack.Category = constants.CategorySelfCare
	SeedHabit(t, s, run)
	SeedHabit(t, s, snack)

	got, err := s.GetHabit(snack.ID)
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if got.HabitType != constants.HabitBad || got.Category != constants.CategorySelfCare || !got.IsActive {
		t.Errorf("GetHabit() = %+v", got)
	}

	byName, err := s.GetHabitByName(p.ID, "morning run")
	if err != nil {
		t.Fatalf("GetHabitByName() failed: %v", err)
	}
	if byName.ID != run.ID {
		t.Errorf("GetHabitByName() = %s, want %s", byName.ID, run.ID)
	}

	got.Notes = "after 9pm"
	got.ExpValue = 35
	if err := s.UpdateHabit(got); err != nil {
		t.Fatalf("UpdateHabit() failed: %v", err)
	}

	if err := s.DeactivateHabit(run.ID); err != nil {
		t.Fatalf("DeactivateHabit() failed: %v", err)
	}
	active, err := s.GetHabits(p.ID, false)
	if err != nil {
		t.Fatalf("GetHabits() failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != snack.ID || active[0].ExpValue != 35 {
		t.Errorf("active habits = %+v", active)
	}
	all, err := s.GetHabits(p.ID, true)
	if err != nil {
		t.Fatalf("GetHabits(all) failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != run.ID {
		t.Errorf("all habits = %+v, want run first", all)
	}
	if _, err := s.GetHabitByName(p.ID, "Morning run"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabitByName(inactive) error = %v, want ErrNotFound", err)
	}
	if err := s.DeactivateHabit("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeactivateHabit(missing) error = %v, want ErrNotFound", err)
	}
}

func testCatalog(t *testing.T, s storage.Provider) {
	items, err := s.GetCatalog()
	if err != nil {
		t.Fatalf("GetCatalog() failed: %v", err)
	}
	catalog := models.NewCatalog(items)
	for _, id := range []string{"hat_cap", "shirt_tunic", "effect_sparkles", "companion_owl", "hat_wizard"} {
		if _, ok := catalog[id]; !ok {
			t.Errorf("catalog missing seeded item %s", id)
		}
	}
	for i := 1; i < len(items); i++ {
		if items[i].RequiredLevel < items[i-1].RequiredLevel {
			t.Fatalf("catalog not ordered by level: %s before %s", items[i-1].ID, items[i].ID)
		}
	}

	sparkles, err := s.GetItem("effect_sparkles")
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if sparkles.RequiredLevel != 6 || sparkles.CoinCost != 0 || sparkles.Category != constants.ItemEffect {
		t.Errorf("GetItem() = %+v", sparkles)
	}
	if _, err := s.GetItem("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetItem(missing) error = %v, want ErrNotFound", err)
	}
}

func completion(p models.Profile, h models.Habit, at time.Time) models.Completion {
	h.Streak++
	h.BestStreak = max(h.BestStreak, h.Streak)
	p.TotalExp += 20
	p.CurrentExp += 20
	p.Coins += 5
	return models.Completion{
		Log: models.HabitLog{
			ID:          uuid.NewString(),
			ProfileID:   p.ID,
			HabitID:     h.ID,
			CompletedAt: at,
			ExpEarned:   20,
		},
		Habit:   h,
		Profile: p,
	}
}

func testApplyCompletion(t *testing.T, s storage.Provider) {
	p := SeedProfile(t, s, uniqueProfile())
	h := SeedHabit(t, s, Habit(p.ID, "Read", constants.HabitGood))

	c := completion(p, h, Epoch.Add(time.Hour))
	c.Achievements = []models.Achievement{{
		ID: uuid.NewString(), ProfileID: p.ID, Type: "first_quest", Name: "First Quest", EarnedAt: Epoch.Add(time.Hour),
	}}
	if err := s.ApplyCompletion(c); err != nil {
		t.Fatalf("ApplyCompletion() failed: %v", err)
	}

	gotProfile, _ := s.GetProfile(p.ID)
	if gotProfile.TotalExp != 20 || gotProfile.Coins != 5 {
		t.Errorf("profile after completion = %+v", gotProfile)
	}
	gotHabit, _ := s.GetHabit(h.ID)
	if gotHabit.Streak != 1 || gotHabit.BestStreak != 1 {
		t.Errorf("habit after completion = %+v", gotHabit)
	}
	log, err := s.GetHabitLog(c.Log.ID)
	if err != nil || log.ExpEarned != 20 || log.HabitID != h.ID {
		t.Errorf("GetHabitLog() = (%+v, %v)", log, err)
	}

	if err := s.ApplyCompletion(c); !errors.Is(err, storage.ErrAlreadyApplied) {
		t.Errorf("replayed ApplyCompletion() error = %v, want ErrAlreadyApplied", err)
	}
	if n, _ := s.CountHabitLogs(p.ID); n != 1 {
		t.Errorf("CountHabitLogs() = %d after replay, want 1", n)
	}
	if again, _ := s.GetProfile(p.ID); again.TotalExp != 20 {
		t.Errorf("replay changed profile: TotalExp = %d", again.TotalExp)
	}

	// A second completion carrying an already-earned achievement must not fail.
	c2 := completion(gotProfile, gotHabit, Epoch.Add(2*time.Hour))
	c2.Achievements = []models.Achievement{{
		ID: uuid.NewString(), ProfileID: p.ID, Type: "first_quest", Name: "First Quest", EarnedAt: Epoch.Add(2 * time.Hour),
	}}
	if err := s.ApplyCompletion(c2); err != nil {
		t.Fatalf("second ApplyCompletion() failed: %v", err)
	}
	achievements, err := s.GetAchievements(p.ID)
	if err != nil {
		t.Fatalf("GetAchievements() failed: %v", err)
	}
	if len(achievements) != 1 || achievements[0].Type != "first_quest" {
		t.Errorf("achievements = %+v, want one first_quest", achievements)
	}
	if n, _ := s.CountHabitLogs(p.ID); n != 2 {
		t.Errorf("CountHabitLogs() = %d, want 2", n)
	}
}

func testApplyCompletionRollback(t *testing.T, s storage.Provider) {
	p := SeedProfile(t, s, uniqueProfile())
	h := SeedHabit(t, s, Habit(p.ID, "Stretch", constants.HabitGood))

	c := completion(p, h, Epoch)
	c.Profile.ID = "ghost"
	if err := s.ApplyCompletion(c); err == nil {
		t.Fatal("ApplyCompletion() with a missing profile should fail")
	}

	if _, err := s.GetHabitLog(c.Log.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("log should not exist after rollback, got %v", err)
	}
	if got, _ := s.GetHabit(h.ID); got.Streak != 0 {
		t.Errorf("habit streak = %d after rollback, want 0", got.Streak)
	}
}

func testHabitLogsWindow(t *testing.T, s storage.Provider) {
	p := SeedProfile(t, s, uniqueProfile())
	h := SeedHabit(t, s, Habit(p.ID, "Journal", constants.HabitGood))

	times := []time.Time{Epoch.AddDate(0, 0, -40), Epoch.AddDate(0, 0, -3), Epoch.AddDate(0, 0, -1)}
	for _, at := range times {
		prof, _ := s.GetProfile(p.ID)
		habit, _ := s.GetHabit(h.ID)
		if err := s.ApplyCompletion(completion(prof, habit, at)); err != nil {
			t.Fatalf("ApplyCompletion() failed: %v", err)
		}
	}

	logs, err := s.GetHabitLogs(p.ID, Epoch.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("GetHabitLogs() failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("GetHabitLogs() returned %d logs, want 2", len(logs))
	}
	if !logs[0].CompletedAt.Equal(times[2]) || !logs[1].CompletedAt.Equal(times[1]) {
		t.Errorf("logs not newest first: %v, %v", logs[0].CompletedAt, logs[1].CompletedAt)
	}
}
