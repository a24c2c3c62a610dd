package config

import (
	"testing"
	"time"
)

func TestEnvDefaults(t *testing.T) {
	t.Setenv("HOARD_TEST_STR", "  value  ")
	if got := envDefault("HOARD_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("envDefault = %q, want %q", got, "value")
	}
	if got := envDefault("HOARD_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("envDefault missing = %q, want fallback", got)
	}

	t.Setenv("HOARD_TEST_DUR", "90s")
	if got := envDurationDefault("HOARD_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Fatalf("envDurationDefault = %v, want 90s", got)
	}
	t.Setenv("HOARD_TEST_DUR_BAD", "not-a-duration")
	if got := envDurationDefault("HOARD_TEST_DUR_BAD", time.Minute); got != time.Minute {
		t.Fatalf("envDurationDefault bad value = %v, want fallback", got)
	}

	t.Setenv("HOARD_TEST_BOOL", "false")
	if envBoolDefault("HOARD_TEST_BOOL", true) {
		t.Fatalf("envBoolDefault should honor an explicit false")
	}
	if !envBoolDefault("HOARD_TEST_BOOL_MISSING", true) {
		t.Fatalf("envBoolDefault missing should fall back to true")
	}
}

func TestLoadAPIFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hoard")
	t.Setenv("HOARD_ENGINE_TOKEN", "secret")
	t.Setenv("PORT", "9090")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("Addr = %q, want :9090", cfg.Addr)
	}
	if !cfg.StartupMigrate || !cfg.StartupReapDives {
		t.Fatalf("startup toggles should default to true: %+v", cfg)
	}
}

func TestLoadAPIFromEnvRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HOARD_ENGINE_TOKEN", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatalf("expected an error without DATABASE_URL")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/hoard")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatalf("expected an error without HOARD_ENGINE_TOKEN")
	}
}

func TestLoadWorkerFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hoard")
	t.Setenv("HOARD_RIPE_TICK_EVERY", "30s")
	cfg, err := LoadWorkerFromEnv()
	if err != nil {
		t.Fatalf("LoadWorkerFromEnv: %v", err)
	}
	if cfg.RipeTickEvery != 30*time.Second {
		t.Fatalf("RipeTickEvery = %v, want 30s", cfg.RipeTickEvery)
	}
}
