package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"course-quiz-service/internal/auth"
	"course-quiz-service/internal/config"
	"course-quiz-service/internal/infra/memory"
	"course-quiz-service/internal/infra/recaptcha"
)

func TestNewVerifierSelection(t *testing.T) {
	var cfg config.Config
	if err := newVerifier(cfg).Verify(context.Background(), "token"); err != recaptcha.ErrNotConfigured {
		t.Fatalf("expected not configured, got %v", err)
	}

	cfg.Recaptcha.SkipVerification = true
	if err := newVerifier(cfg).Verify(context.Background(), "token"); err != nil {
		t.Fatalf("expected pass-through verifier, got %v", err)
	}

	cfg.Recaptcha.Secret = "secret"
	if _, ok := newVerifier(cfg).(*recaptcha.Client); !ok {
		t.Fatalf("expected siteverify client when a secret is set")
	}

	cfg.Recaptcha.Endpoint = "http://localhost/verify"
	if _, ok := newVerifier(cfg).(*recaptcha.EndpointVerifier); !ok {
		t.Fatalf("expected endpoint verifier when an endpoint is set")
	}
}

func TestShippedConfigKeepsVerificationOn(t *testing.T) {
	t.Setenv("RECAPTCHA_SECRET_KEY", "")
	t.Setenv("JWT_SECRET", "")
	cfg, err := config.Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if cfg.Recaptcha.SkipVerification {
		t.Fatalf("shipped config must not skip verification")
	}
	if err := newVerifier(cfg).Verify(context.Background(), "any-token"); err == nil {
		t.Fatalf("shipped config produced a verifier that accepts any token")
	}
	if err := checkJWTSecret(cfg.Auth.JWTSecret); err == nil {
		t.Fatalf("shipped config must not carry a usable jwt secret")
	}
}

func TestCheckJWTSecret(t *testing.T) {
	for _, secret := range []string{"", "change-me", "CHANGE-ME", "secret"} {
		if err := checkJWTSecret(secret); err == nil {
			t.Fatalf("expected %q to be rejected", secret)
		}
	}
	if err := checkJWTSecret("s3cret-from-vault"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenBackendDefaultsToMemory(t *testing.T) {
	backend, cleanup, err := openBackend(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer cleanup()
	if _, ok := backend.(*memory.Backend); !ok {
		t.Fatalf("expected memory backend, got %T", backend)
	}
	course, err := backend.GetCourse(context.Background(), "intro-web3")
	if err != nil {
		t.Fatalf("sample course: %v", err)
	}
	if len(course.Quiz) <= 5 {
		t.Fatalf("sample bank should be larger than a quiz to exercise sampling, got %d", len(course.Quiz))
	}
}

func TestOpenBackendRejectsUnknownDriver(t *testing.T) {
	var cfg config.Config
	cfg.Backend.Driver = "sqlite"
	if _, _, err := openBackend(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestTokenCmdIssuesParsableToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  jwtSecret: s3cret\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JWT_SECRET", "")

	var out bytes.Buffer
	cmd := NewTokenCmd(&path)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"0xadmin", "--admin"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	user, err := auth.NewAuthenticator("s3cret").Parse(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if user.UserID != "0xadmin" || !user.Admin {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestMigrateWithRetryRetriesUntilDatabaseIsUp(t *testing.T) {
	shortenRetry(t, time.Second)

	attempts := 0
	migratePostgres = func(context.Context, config.Config) error {
		attempts++
		if attempts < 3 {
			return errors.New("the database system is starting up")
		}
		return nil
	}

	var cfg config.Config
	cfg.Postgres.URL = "postgres://localhost/quiz"
	if err := migrateWithRetry(context.Background(), cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestMigrateWithRetryGivesUp(t *testing.T) {
	shortenRetry(t, 50*time.Millisecond)

	migratePostgres = func(context.Context, config.Config) error {
		return errors.New("connection refused")
	}
	if err := migrateWithRetry(context.Background(), config.Config{}); err == nil {
		t.Fatalf("expected migrations to fail once the retry window closes")
	}
}

func shortenRetry(t *testing.T, window time.Duration) {
	t.Helper()
	interval, elapsed, migrate := retryInitialInterval, retryMaxElapsed, migratePostgres
	retryInitialInterval, retryMaxElapsed = time.Millisecond, window
	t.Cleanup(func() {
		retryInitialInterval, retryMaxElapsed, migratePostgres = interval, elapsed, migrate
	})
}
