package identity

import (
	"errors"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/questlog/internal/keyring"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
	"github.com/julianstephens/questlog/internal/storage/storagetest"
)

var testParams = hashParams{time: 1, memory: 1024, threads: 1, saltLen: 16, keyLen: 32}

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	gokeyring.MockInit()

	store := storagetest.NewSQLite(t)
	svc := NewService(store)
	svc.params = testParams
	now := storagetest.Epoch
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("correct horse", testParams)
	if err != nil {
		t.Fatalf("hashPassword() failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("hash = %q, want argon2id PHC string", hash)
	}

	other, _ := hashPassword("correct horse", testParams)
	if other == hash {
		t.Error("two hashes of the same password should use different salts")
	}

	if ok, err := verifyPassword("correct horse", hash); err != nil || !ok {
		t.Errorf("verifyPassword(correct) = (%v, %v)", ok, err)
	}
	if ok, _ := verifyPassword("wrong horse", hash); ok {
		t.Error("verifyPassword(wrong) = true")
	}

	for _, bad := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=19$m=x$a$b"} {
		if _, err := verifyPassword("x", bad); !errors.Is(err, errInvalidHash) {
			t.Errorf("verifyPassword(%q) error = %v, want errInvalidHash", bad, err)
		}
	}
}

func TestSignUp(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.SignUp("  Hero@Example.com ", "hunter22")
	if err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}
	if p.Email != "hero@example.com" || p.CharacterLevel != 1 || p.ExpToNext != 100 {
		t.Errorf("profile = %+v", p)
	}
	if !p.HasUnlocked("hat_cap") || !p.HasUnlocked("shirt_tunic") || len(p.UnlockedItems) != 2 {
		t.Errorf("starter items = %v, want hat_cap and shirt_tunic", p.UnlockedItems)
	}

	stored, err := svc.store.GetProfile(p.ID)
	if err != nil || len(stored.UnlockedItems) != 2 {
		t.Errorf("stored profile = %+v, %v", stored, err)
	}

	if _, err := svc.SignUp("HERO@example.com", "another-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate SignUp() error = %v, want ErrEmailTaken", err)
	}
}

// racingStore hides existing accounts from the pre-check, as a concurrent
// sign-up with the same email would, and records the profile it was asked
// to create.
type racingStore struct {
	storage.Provider
	attempted models.Profile
}

func (r *racingStore) GetAccountByEmail(email string) (models.Account, error) {
	return models.Account{}, storage.ErrNotFound
}

func (r *racingStore) CreateAccount(p models.Profile, a models.Account) error {
	r.attempted = p
	return r.Provider.CreateAccount(p, a)
}

func TestSignUpConflictLeavesNoProfile(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SignUp("racer@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}

	race := &racingStore{Provider: svc.store}
	svc.store = race
	if _, err := svc.SignUp("racer@example.com", "other-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("racing SignUp() error = %v, want ErrEmailTaken", err)
	}
	if race.attempted.ID == "" {
		t.Fatal("CreateAccount was not called")
	}
	if _, err := race.Provider.GetProfile(race.attempted.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("orphan profile stored after failed sign-up: %v", err)
	}
}

func TestSignUpRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "no at sign", email: "hero", password: "hunter22", want: ErrInvalidEmail},
		{name: "display name", email: "Hero <hero@example.com>", password: "hunter22", want: ErrInvalidEmail},
		{name: "short password", email: "hero@example.com", password: "short", want: ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SignUp(tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("SignUp() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignInLifecycle(t *testing.T) {
	svc, now := newTestService(t)
	if _, err := svc.SignUp("hero@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}

	if _, _, err := svc.Current(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Current() before sign-in = %v, want ErrNoSession", err)
	}

	session, profile, err := svc.SignIn("Hero@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}
	if profile.LoginStreak != 1 || profile.LastLogin == nil {
		t.Errorf("login not recorded: streak %d", profile.LoginStreak)
	}
	if !session.ExpiresAt.Equal(storagetest.Epoch.Add(7 * 24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v", session.ExpiresAt)
	}
	if token, _ := keyring.GetSessionToken(); token != session.Token {
		t.Errorf("keyring token = %q, want %q", token, session.Token)
	}

	_, current, err := svc.Current()
	if err != nil || current.ID != profile.ID {
		t.Fatalf("Current() = (%v, %v)", current.ID, err)
	}

	// Next day: streak grows.
	*now = now.Add(24 * time.Hour)
	if _, p, err := svc.SignIn("hero@example.com", "hunter22"); err != nil || p.LoginStreak != 2 {
		t.Errorf("second-day SignIn() = streak %d, err %v", p.LoginStreak, err)
	}

	refreshed, err := svc.Refresh()
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if !refreshed.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Errorf("refreshed ExpiresAt = %v", refreshed.ExpiresAt)
	}

	if err := svc.SignOut(); err != nil {
		t.Fatalf("SignOut() failed: %v", err)
	}
	if _, _, err := svc.Current(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Current() after sign-out = %v, want ErrNoSession", err)
	}
	if err := svc.SignOut(); err != nil {
		t.Errorf("second SignOut() = %v, want nil", err)
	}
}

func TestSignInWrongCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SignUp("hero@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"hero@example.com", "hunter23"},
		{"nobody@example.com", "hunter22"},
		{"not-an-email", "hunter22"},
	} {
		if _, _, err := svc.SignIn(tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%q) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}
	if _, err := keyring.GetSessionToken(); !errors.Is(err, keyring.ErrNotFound) {
		t.Error("failed sign-in stored a token")
	}
}

func TestSessionExpiry(t *testing.T) {
	svc, now := newTestService(t)
	if _, err := svc.SignUp("hero@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}
	if _, _, err := svc.SignIn("hero@example.com", "hunter22"); err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}

	*now = now.Add(7 * 24 * time.Hour)
	if _, _, err := svc.Current(); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Current() at expiry = %v, want ErrSessionExpired", err)
	}
	if _, err := svc.Refresh(); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Refresh() at expiry = %v, want ErrSessionExpired", err)
	}
}
