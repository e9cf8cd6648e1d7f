package health

import (
	"path/filepath"
	"testing"

	"github.com/pulsepro/pulsebot/internal/config"
	"github.com/pulsepro/pulsebot/internal/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "data")
	return cfg
}

func TestRunChecksDefaults(t *testing.T) {
	report := RunChecks(testConfig(t))

	if !report.Healthy() {
		t.Errorf("default config should be healthy: %+v", report.Checks)
	}

	byName := map[string]Check{}
	for _, c := range report.Checks {
		byName[c.Name] = c
	}
	if byName["telegram"].Status != StatusDisabled {
		t.Errorf("expected disabled telegram, got %v", byName["telegram"].Status)
	}
	if byName["session"].Status != StatusOK {
		t.Errorf("expected OK session, got %v", byName["session"].Status)
	}
}

func TestRunChecksMissingToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telegram.Enabled = true

	report := RunChecks(cfg)
	if report.Healthy() {
		t.Error("enabled adapter without a token must fail")
	}
}

func TestRunChecksRedisBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Backend = config.SessionBackendRedis

	report := RunChecks(cfg)
	if report.Healthy() {
		t.Error("redis backend without an address must fail")
	}

	cfg.Session.Redis = &session.RedisConfig{Addr: "localhost:6379"}
	report = RunChecks(cfg)
	if !report.Healthy() {
		t.Errorf("redis backend with address should pass: %+v", report.Checks)
	}
}

func TestRunChecksMissingStorePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Path = ""

	report := RunChecks(cfg)
	if report.Healthy() {
		t.Error("empty store path must fail")
	}
}

func TestStatusSymbol(t *testing.T) {
	if StatusOK.Symbol() != "✅" || StatusError.Symbol() != "❌" {
		t.Error("unexpected status symbols")
	}
}
