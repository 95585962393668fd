package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/storage/sqlite"
	"github.com/julianstephens/questlog/internal/storage/storagetest"
)

// seedDB creates a closed questlog database holding one profile and one habit.
func seedDB(t *testing.T) (dbPath, profileID string) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "questlog.db")
	store := sqlite.NewStore(dbPath)
	store.MigrationLog = func(string) {}
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	p := storagetest.SeedProfile(t, store, storagetest.Profile())
	storagetest.SeedHabit(t, store, storagetest.Habit(p.ID, "Read", constants.HabitGood))
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	return dbPath, p.ID
}

func habitCount(t *testing.T, dbPath, profileID string) int {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	store.MigrationLog = func(string) {}
	if err := store.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer store.Close()
	habits, err := store.GetHabits(profileID, true)
	if err != nil {
		t.Fatalf("GetHabits() failed: %v", err)
	}
	return len(habits)
}

// steppingClock advances one minute per call.
func steppingClock() func() time.Time {
	t := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestCreate(t *testing.T) {
	dbPath, profileID := seedDB(t)
	mgr := NewManager(dbPath)

	path, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(filepath.Dir(dbPath), DirName) {
		t.Errorf("backup written to %s, want under %s", path, mgr.Dir())
	}
	if _, ok := parseName(filepath.Base(path)); !ok {
		t.Errorf("backup name %q does not parse", filepath.Base(path))
	}
	if n := habitCount(t, path, profileID); n != 1 {
		t.Errorf("backup holds %d habits, want 1", n)
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); err == nil {
		t.Fatal("Create() should fail without a database")
	}
}

func TestCreateSameMinuteGetsUniqueNames(t *testing.T) {
	dbPath, _ := seedDB(t)
	mgr := NewManager(dbPath)
	fixed := time.Date(2025, 3, 10, 9, 15, 30, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
		name := filepath.Base(path)
		if seen[name] {
			t.Fatalf("duplicate backup name %s", name)
		}
		seen[name] = true
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(backups) != 4 {
		t.Errorf("List() = %d backups, want 4", len(backups))
	}
}

func TestRotation(t *testing.T) {
	dbPath, _ := seedDB(t)
	mgr := NewManager(dbPath)
	mgr.now = steppingClock()

	var newest string
	for i := 0; i < MaxBackups+3; i++ {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
		newest = path
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(backups) != MaxBackups {
		t.Fatalf("List() = %d backups, want %d", len(backups), MaxBackups)
	}
	if backups[0].Path != newest {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, newest)
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath, _ := seedDB(t)
	mgr := NewManager(dbPath)

	backups, err := mgr.List()
	if err != nil || len(backups) != 0 {
		t.Fatalf("List() before any backup = (%v, %v)", backups, err)
	}

	if _, err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	for _, name := range []string{"notes.txt", "questlog-latest.db", "backup-20250101-1200.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err = mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(backups) != 1 || backups[0].Size == 0 {
		t.Errorf("List() = %+v, want the single real backup", backups)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want time.Time
	}{
		{name: "questlog-20250310-0915.db", ok: true, want: time.Date(2025, 3, 10, 9, 15, 0, 0, time.Local)},
		{name: "questlog-20250310-091530.db", ok: true, want: time.Date(2025, 3, 10, 9, 15, 30, 0, time.Local)},
		{name: "questlog-20250310-091530-12.db", ok: true, want: time.Date(2025, 3, 10, 9, 15, 30, 0, time.Local)},
		{name: "questlog-20250310.db"},
		{name: "questlog-20250310-0915.db.tmp"},
		{name: "questlog-20251340-0915.db"},
	}
	for _, tt := range tests {
		got, ok := parseName(tt.name)
		if ok != tt.ok {
			t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("parseName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRestore(t *testing.T) {
	dbPath, profileID := seedDB(t)
	mgr := NewManager(dbPath)
	mgr.now = steppingClock()

	snapshot, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	store := sqlite.NewStore(dbPath)
	store.MigrationLog = func(string) {}
	if err := store.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	storagetest.SeedHabit(t, store, storagetest.Habit(profileID, "Run", constants.HabitGood))
	store.Close()
	if n := habitCount(t, dbPath, profileID); n != 2 {
		t.Fatalf("habits before restore = %d, want 2", n)
	}

	saved, err := mgr.Restore(snapshot)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if n := habitCount(t, dbPath, profileID); n != 1 {
		t.Errorf("habits after restore = %d, want 1", n)
	}
	if saved == "" {
		t.Fatal("Restore() should snapshot the current database first")
	}
	if n := habitCount(t, saved, profileID); n != 2 {
		t.Errorf("safety snapshot holds %d habits, want 2", n)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath, profileID := seedDB(t)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.Restore(bogus); err == nil {
		t.Error("Restore() should reject a corrupt file")
	}
	if _, err := mgr.Restore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("Restore() should reject a missing file")
	}
	if n := habitCount(t, dbPath, profileID); n != 1 {
		t.Errorf("database changed after rejected restore: %d habits", n)
	}
}

func TestResolve(t *testing.T) {
	dbPath, _ := seedDB(t)
	mgr := NewManager(dbPath)
	path, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if got := mgr.Resolve(filepath.Base(path)); got != path {
		t.Errorf("Resolve(name) = %q, want %q", got, path)
	}
	if got := mgr.Resolve("/abs/elsewhere.db"); got != "/abs/elsewhere.db" {
		t.Errorf("Resolve(abs) = %q", got)
	}
	if got := mgr.Resolve("relative.db"); got != "relative.db" {
		t.Errorf("Resolve(unknown) = %q", got)
	}
}
