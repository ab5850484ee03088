package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
server:
  port: "9090"
backend:
  driver: postgres
postgres:
  url: postgres://file
quiz:
  ttl: 2m
  maxQuestions: 3
recaptcha:
  secret: from-file
submission:
  mode: transactional
`

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECAPTCHA_SECRET_KEY", "from-env")
	t.Setenv("POSTGRES_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Backend.Driver != "postgres" || cfg.Quiz.MaxQuestions != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Recaptcha.Secret != "from-env" {
		t.Fatalf("expected env secret, got %q", cfg.Recaptcha.Secret)
	}
	if cfg.Postgres.URL != "postgres://file" {
		t.Fatalf("empty env must not override, got %q", cfg.Postgres.URL)
	}
	if cfg.Submission.Mode != "transactional" {
		t.Fatalf("unexpected submission mode %q", cfg.Submission.Mode)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":      time.Minute,
		"bogus": time.Minute,
		"90s":   90 * time.Second,
	}
	for raw, want := range cases {
		if got := TTLDuration(raw, time.Minute); got != want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", raw, got, want)
		}
	}
}
