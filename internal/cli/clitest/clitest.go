// Package clitest builds command contexts backed by temporary stores.
package clitest

import (
	"bytes"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/config"
	"github.com/julianstephens/questlog/internal/metrics"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage/storagetest"
)

const (
	Email    = "hero@example.com"
	Password = "hunter22"
)

// NewContext returns a context over a fresh SQLite store with a mocked
// keyring. Command output is captured in the returned buffer.
func NewContext(t testing.TB) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	gokeyring.MockInit()
	t.Setenv("QUESTLOG_HOME", t.TempDir())

	out := &bytes.Buffer{}
	return &cli.Context{
		Store:   storagetest.NewSQLite(t),
		Config:  config.DefaultConfig(),
		Metrics: metrics.New(),
		Out:     out,
	}, out
}

// SignedIn returns a context with an account created and signed in.
func SignedIn(t testing.TB) (*cli.Context, *bytes.Buffer, models.Profile) {
	t.Helper()
	ctx, out := NewContext(t)

	svc := ctx.Identity()
	if _, err := svc.SignUp(Email, Password); err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}
	_, profile, err := svc.SignIn(Email, Password)
	if err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}
	return ctx, out, profile
}
