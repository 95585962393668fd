package cli

import (
	"errors"
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/questlog/internal/config"
	"github.com/julianstephens/questlog/internal/keyring"
	"github.com/julianstephens/questlog/internal/storage/postgres"
	"github.com/julianstephens/questlog/internal/storage/sqlite"
)

func TestResolveStorage(t *testing.T) {
	cfg := config.Config{Storage: config.StorageConfig{Path: "/data/questlog.db"}}

	tests := []struct {
		name       string
		flag       string
		env        string
		keyring    string
		dsn        string
		want       string
		wantSource StorageSource
		wantErr    error
	}{
		{name: "config path", want: "/data/questlog.db", wantSource: SourceConfig},
		{name: "flag wins", flag: "/tmp/q.db", env: "postgres://a@h/db", want: "/tmp/q.db", wantSource: SourceFlag},
		{name: "env before keyring", env: "postgres://u:pw@h/db", keyring: "postgres://k@h/db", want: "postgres://u:pw@h/db", wantSource: SourceEnv},
		{name: "keyring", keyring: "postgres://u:pw@h/db", dsn: "postgres://c@h/db", want: "postgres://u:pw@h/db", wantSource: SourceKeyring},
		{name: "config dsn", dsn: "postgres://c@h/db", want: "postgres://c@h/db", wantSource: SourceConfig},
		{name: "flag password refused", flag: "postgres://u:pw@h/db", wantErr: ErrEmbeddedCredentials},
		{name: "config password refused", dsn: "postgres://u:pw@h/db", wantErr: ErrEmbeddedCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gokeyring.MockInit()
			t.Setenv("QUESTLOG_DB_CONNECTION", tt.env)
			if tt.keyring != "" {
				if err := keyring.SetConnectionString(tt.keyring); err != nil {
					t.Fatal(err)
				}
			}
			c := cfg
			c.Storage.DSN = tt.dsn

			got, source, err := ResolveStorage(tt.flag, c)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveStorage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveStorage() failed: %v", err)
			}
			if got != tt.want || source != tt.wantSource {
				t.Errorf("ResolveStorage() = (%q, %s), want (%q, %s)", got, source, tt.want, tt.wantSource)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "q.db"))
	if err != nil {
		t.Fatalf("OpenStore(sqlite) failed: %v", err)
	}
	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("OpenStore(path) = %T, want *sqlite.Store", s)
	}

	s, err = OpenStore("postgres://hero@localhost:5432/questlog?sslmode=disable")
	if err != nil {
		t.Fatalf("OpenStore(postgres) failed: %v", err)
	}
	if _, ok := s.(*postgres.Store); !ok {
		t.Errorf("OpenStore(url) = %T, want *postgres.Store", s)
	}

	if _, err := OpenStore("postgres://%zz"); err == nil {
		t.Error("OpenStore() accepted a malformed URL")
	}
}
