package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("NOTIFY_RETRY_DELAY", "1s")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	if cfg.TablePrefix != "test_" {
		t.Errorf("expected test_ prefix, got %q", cfg.TablePrefix)
	}
	if cfg.NotifyRetryDelay != time.Second {
		t.Errorf("expected 1s retry delay, got %v", cfg.NotifyRetryDelay)
	}
	if cfg.NotifyMaxAttempts != 3 {
		t.Errorf("expected default attempts on a bad value, got %d", cfg.NotifyMaxAttempts)
	}
	if !cfg.Debug {
		t.Error("expected debug on outside prod")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{StoreDriver: DriverMemory, MaxBatchSize: 1}},
		{name: "postgres without url", cfg: Config{StoreDriver: DriverPostgres, MaxBatchSize: 1}, wantErr: true},
		{name: "unknown driver", cfg: Config{StoreDriver: "mongo", MaxBatchSize: 1}, wantErr: true},
		{name: "prod without jwks", cfg: Config{StoreDriver: DriverMemory, Environment: "prod", MaxBatchSize: 1}, wantErr: true},
		{name: "zero batch size", cfg: Config{StoreDriver: DriverMemory}, wantErr: true},
		{name: "sqlite without path", cfg: Config{StoreDriver: DriverSQLite, MaxBatchSize: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateServer()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{CORSOrigins: "http://a.test, http://b.test,,"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", got)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"quix-1.log", "quix-2.log", "quix-3.log", "other-1.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := cleanupOldLogs(dir, "quix", 2); err != nil {
		t.Fatal(err)
	}

	left, _ := filepath.Glob(filepath.Join(dir, "*.log"))
	if len(left) != 3 {
		t.Fatalf("expected 3 files left, got %v", left)
	}
	if _, err := os.Stat(filepath.Join(dir, "quix-1.log")); !os.IsNotExist(err) {
		t.Error("expected the oldest log to be removed")
	}
}

func TestValidate_CLIIgnoresAuth(t *testing.T) {
	cfg := Config{StoreDriver: DriverMemory, Environment: "prod", MaxBatchSize: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error without JWKS outside the server, got %v", err)
	}
}
