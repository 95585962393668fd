// Package identity signs users up and in, and tracks the active session
// through the OS keyring.
package identity

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/keyring"
	"github.com/julianstephens/questlog/internal/logger"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/progression"
	"github.com/julianstephens/questlog/internal/shop"
	"github.com/julianstephens/questlog/internal/storage"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 8

var (
	// ErrInvalidCredentials is returned when the email or password is wrong
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email
	ErrEmailTaken = errors.New("an account with that email already exists")
	// ErrNoSession is returned when nobody is signed in
	ErrNoSession = errors.New("not signed in; run 'questlog auth signin'")
	// ErrSessionExpired is returned when the stored session has lapsed
	ErrSessionExpired = errors.New("session expired; run 'questlog auth signin'")
	// ErrInvalidEmail is returned for malformed addresses
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Service manages accounts and sessions
type Service struct {
	store  storage.Provider
	now    func() time.Time
	ttl    time.Duration
	params hashParams
}

// NewService creates an identity service backed by store.
func NewService(store storage.Provider) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		ttl:    constants.SessionTTL,
		params: defaultParams,
	}
}

// SignUp registers a new account and creates its level-1 profile. The
// profile starts with every free level-1 item unlocked.
func (s *Service) SignUp(email, password string) (models.Profile, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Profile{}, err
	}
	if len(password) < MinPasswordLength {
		return models.Profile{}, ErrWeakPassword
	}

	if _, err := s.store.GetAccountByEmail(email); err == nil {
		return models.Profile{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("failed to check account: %w", err)
	}

	hash, err := hashPassword(password, s.params)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to hash password: %w", err)
	}

	catalog, err := s.store.GetCatalog()
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	now := s.now().UTC()
	profile := models.Profile{
		ID:            uuid.NewString(),
		Email:         email,
		EquippedItems: []string{},
		UnlockedItems: []string{},
		CreatedAt:     now,
	}
	progression.ApplyTotalExp(&profile, 0)
	profile, starters := shop.MergeUnlocks(profile, shop.FreeUnlockCheck(constants.StartingLevel, catalog))

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		ProfileID:    profile.ID,
		CreatedAt:    now,
	}
	if err := s.store.CreateAccount(profile, account); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Profile{}, ErrEmailTaken
		}
		return models.Profile{}, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Info("Account created", "profile", profile.ID, "starter_items", len(starters))
	return profile, nil
}

// SignIn verifies the credentials, opens a session and stores its token in
// the keyring. It also records the login for the login streak.
func (s *Service) SignIn(email, password string) (models.Session, models.Profile, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Session{}, models.Profile{}, ErrInvalidCredentials
	}

	account, err := s.store.GetAccountByEmail(email)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Session{}, models.Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, models.Profile{}, fmt.Errorf("failed to load account: %w", err)
	}

	ok, err := verifyPassword(password, account.PasswordHash)
	if err != nil {
		logger.Error("Stored password hash is unreadable", "account", account.ID, "error", err)
		return models.Session{}, models.Profile{}, ErrInvalidCredentials
	}
	if !ok {
		logger.Debug("Sign-in refused", "account", account.ID)
		return models.Session{}, models.Profile{}, ErrInvalidCredentials
	}

	profile, err := s.store.GetProfile(account.ProfileID)
	if err != nil {
		return models.Session{}, models.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}

	now := s.now()
	if updated, changed := progression.RecordLogin(profile, now); changed {
		if err := s.store.UpdateProfile(updated); err != nil {
			return models.Session{}, models.Profile{}, fmt.Errorf("failed to record login: %w", err)
		}
		profile = updated
	}

	session := models.Session{
		Token:     uuid.NewString(),
		ProfileID: profile.ID,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(s.ttl).UTC(),
	}
	if err := s.store.AddSession(session); err != nil {
		return models.Session{}, models.Profile{}, fmt.Errorf("failed to create session: %w", err)
	}
	if err := keyring.SetSessionToken(session.Token); err != nil {
		_ = s.store.DeleteSession(session.Token)
		return models.Session{}, models.Profile{}, err
	}

	logger.Info("Signed in", "profile", profile.ID, "login_streak", profile.LoginStreak)
	return session, profile, nil
}

// SignOut ends the current session. Signing out with no session is not an
// error.
func (s *Service) SignOut() error {
	token, err := keyring.GetSessionToken()
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteSession(token); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := keyring.DeleteSessionToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Current resolves the keyring token to its session and profile.
func (s *Service) Current() (models.Session, models.Profile, error) {
	session, err := s.session()
	if err != nil {
		return models.Session{}, models.Profile{}, err
	}
	profile, err := s.store.GetProfile(session.ProfileID)
	if err != nil {
		return models.Session{}, models.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return session, profile, nil
}

// Refresh extends the current session by the session TTL.
func (s *Service) Refresh() (models.Session, error) {
	session, err := s.session()
	if err != nil {
		return models.Session{}, err
	}
	session.ExpiresAt = s.now().Add(s.ttl).UTC()
	if err := s.store.UpdateSession(session); err != nil {
		return models.Session{}, fmt.Errorf("failed to refresh session: %w", err)
	}
	return session, nil
}

func (s *Service) session() (models.Session, error) {
	token, err := keyring.GetSessionToken()
	if errors.Is(err, keyring.ErrNotFound) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, err
	}

	session, err := s.store.GetSession(token)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Expired(s.now()) {
		return models.Session{}, ErrSessionExpired
	}
	return session, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
