package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const minimalYAML = `
remote:
  base_url: https://render.internal:9443
`

func TestLoadMinimalFile(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.BaseURL != "https://render.internal:9443" {
		t.Errorf("remote.base_url = %q", cfg.Remote.BaseURL)
	}
	// Defaults kicked in for everything else.
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("server.port = %d, want default", cfg.Server.Port)
	}
	if cfg.Polling.ComparisonGeneration.MaxAttempts != DefaultComparisonMaxAttempts {
		t.Errorf("poll budget not defaulted")
	}
}

func TestLoadExplicitPollingBudget(t *testing.T) {
	path := writeTempConfig(t, `
remote:
  base_url: https://render.internal:9443
polling:
  change_analysis:
    poll_interval: 2s
    max_attempts: 30
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Polling.ChangeAnalysis.PollInterval != 2*time.Second {
		t.Errorf("poll_interval = %s, want 2s", cfg.Polling.ChangeAnalysis.PollInterval)
	}
	if cfg.Polling.ChangeAnalysis.MaxAttempts != 30 {
		t.Errorf("max_attempts = %d, want 30", cfg.Polling.ChangeAnalysis.MaxAttempts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadInvalidConfigFailsValidation(t *testing.T) {
	path := writeTempConfig(t, `
remote:
  base_url: https://render.internal:9443
log:
  level: chatty
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation failure for bad log level")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PLANLENS_REMOTE_BASE_URL", "https://render.example.com")
	t.Setenv("PLANLENS_REDIS_ADDR", "redis.internal:6380")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Remote.BaseURL != "https://render.example.com" {
		t.Errorf("remote.base_url = %q", cfg.Remote.BaseURL)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis.addr = %q", cfg.Redis.Addr)
	}
}

func TestMustLoadPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad did not panic on missing file")
		}
	}()
	MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
}
