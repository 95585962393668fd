package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
	"github.com/julianstephens/questlog/internal/storage/storagetest"
)

// memCache is an in-process cache.Cache for tests.
type memCache struct {
	data map[string][]byte
	err  error
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.sets++
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func complete(t *testing.T, s storage.Provider, profileID, habitID string, at time.Time) {
	t.Helper()
	p, _ := s.GetProfile(profileID)
	h, _ := s.GetHabit(habitID)
	err := s.ApplyCompletion(models.Completion{
		Log:     models.HabitLog{ID: uuid.NewString(), ProfileID: profileID, HabitID: habitID, CompletedAt: at, ExpEarned: 20},
		Habit:   h,
		Profile: p,
	})
	if err != nil {
		t.Fatalf("ApplyCompletion() failed: %v", err)
	}
}

func seedReportData(t *testing.T) (storage.Provider, string) {
	t.Helper()
	store := storagetest.NewSQLite(t)
	p := storagetest.SeedProfile(t, store, storagetest.Profile())

	run := storagetest.Habit(p.ID, "Run", constants.HabitGood)
	read := storagetest.Habit(p.ID, "Read", constants.HabitGood)
	read.Category = constants.CategoryLearning
	read.CreatedAt = run.CreatedAt.Add(time.Minute)
	storagetest.SeedHabit(t, store, run)
	storagetest.SeedHabit(t, store, read)

	now := storagetest.Epoch
	complete(t, store, p.ID, read.ID, now.Add(-time.Hour))
	complete(t, store, p.ID, read.ID, now.AddDate(0, 0, -2))
	complete(t, store, p.ID, run.ID, now.AddDate(0, 0, -10))
	complete(t, store, p.ID, run.ID, now.AddDate(0, 0, -45))
	return store, p.ID
}

func TestServiceReport(t *testing.T) {
	store, profileID := seedReportData(t)
	svc := NewService(store, nil, 0, DefaultOptions())
	svc.now = func() time.Time { return storagetest.Epoch }

	r, err := svc.Report(context.Background(), profileID)
	if err != nil {
		t.Fatalf("Report() failed: %v", err)
	}
	if r.Today.Completed != 1 || r.Today.TotalPossible != 2 {
		t.Errorf("Today = %+v, want 1 of 2", r.Today)
	}
	if r.Week.Count != 2 || r.Month.Count != 3 || r.Month.Exp != 60 {
		t.Errorf("Week = %+v, Month = %+v", r.Week, r.Month)
	}
	if len(r.TopHabits) != 2 || r.TopHabits[0].Name != "Read" || r.TopHabits[0].Count != 2 {
		t.Errorf("TopHabits = %+v, want Read first with 2", r.TopHabits)
	}
	for _, c := range r.Categories {
		if c.Category == constants.CategoryLearning && c.Count != 2 {
			t.Errorf("learning count = %d, want 2", c.Count)
		}
	}
}

func TestServiceReportCaching(t *testing.T) {
	store, profileID := seedReportData(t)
	c := newMemCache()
	svc := NewService(store, c, time.Minute, DefaultOptions())
	svc.now = func() time.Time { return storagetest.Epoch }
	ctx := context.Background()

	first, err := svc.Report(ctx, profileID)
	if err != nil {
		t.Fatalf("Report() failed: %v", err)
	}
	if c.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", c.sets)
	}

	habits, _ := store.GetHabits(profileID, false)
	complete(t, store, profileID, habits[0].ID, storagetest.Epoch.Add(-time.Minute))

	cached, err := svc.Report(ctx, profileID)
	if err != nil {
		t.Fatalf("cached Report() failed: %v", err)
	}
	if cached.Month.Count != first.Month.Count || c.sets != 1 {
		t.Errorf("expected cached report, got month count %d (sets %d)", cached.Month.Count, c.sets)
	}

	svc.Invalidate(ctx, profileID)
	fresh, err := svc.Report(ctx, profileID)
	if err != nil {
		t.Fatalf("fresh Report() failed: %v", err)
	}
	if fresh.Month.Count != first.Month.Count+1 {
		t.Errorf("fresh month count = %d, want %d", fresh.Month.Count, first.Month.Count+1)
	}
}

func TestServiceReportCacheFailureFallsBack(t *testing.T) {
	store, profileID := seedReportData(t)
	c := newMemCache()
	c.err = errors.New("connection refused")
	svc := NewService(store, c, time.Minute, DefaultOptions())
	svc.now = func() time.Time { return storagetest.Epoch }

	r, err := svc.Report(context.Background(), profileID)
	if err != nil {
		t.Fatalf("Report() should ignore cache errors, got %v", err)
	}
	if r.Month.Count != 3 {
		t.Errorf("Month.Count = %d, want 3", r.Month.Count)
	}
}
