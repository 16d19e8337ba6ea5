package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedConfigDir(dir string) Option {
	return WithUserConfigDir(func() (string, error) { return dir, nil })
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""), fixedConfigDir("/home/dev/.config"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":3000" {
		t.Errorf("expected default addr :3000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Cookie.HashKey != nil || cfg.Cookie.Secure {
		t.Errorf("expected empty cookie config, got %+v", cfg.Cookie)
	}
	if got := cfg.Studio.DefaultBase(); got != "http://localhost:7777" {
		t.Errorf("unexpected default base %s", got)
	}
	if cfg.Studio.DefaultTemplate != "main" {
		t.Errorf("unexpected default template %s", cfg.Studio.DefaultTemplate)
	}
	if want := filepath.Join("/home/dev/.config", "flayyer-studio", "settings.json"); cfg.Studio.SettingsFile != want {
		t.Errorf("expected settings file %s, got %s", want, cfg.Studio.SettingsFile)
	}
	if cfg.Snapshot.Timeout != 30*time.Second {
		t.Errorf("unexpected snapshot timeout %s", cfg.Snapshot.Timeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level %s", cfg.LogLevel)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"STUDIO_HTTP_ADDR":        "127.0.0.1:4000",
		"STUDIO_READ_TIMEOUT":     "5s",
		"STUDIO_WRITE_TIMEOUT":    "6s",
		"STUDIO_IDLE_TIMEOUT":     "2m",
		"STUDIO_COOKIE_HASH_KEY":  "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		"STUDIO_COOKIE_SECURE":    "yes",
		"STUDIO_DEFAULT_HOST":     "::1",
		"STUDIO_DEFAULT_PORT":     "8080",
		"STUDIO_DEFAULT_TEMPLATE": "hero",
		"STUDIO_SETTINGS_FILE":    "/tmp/studio.json",
		"STUDIO_HELP_FILE":        "/tmp/help.md",
		"STUDIO_SNAPSHOT_TIMEOUT": "1m",
		"STUDIO_CHROME_PATH":      "/usr/bin/chromium",
		"LOG_LEVEL":               "DEBUG",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:4000" || cfg.Server.ReadTimeout != 5*time.Second || cfg.Server.WriteTimeout != 6*time.Second || cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if string(cfg.Cookie.HashKey) != "0123456789abcdef0123456789abcdef" {
		t.Errorf("expected base64 hash key to be decoded, got %q", cfg.Cookie.HashKey)
	}
	if !cfg.Cookie.Secure {
		t.Errorf("expected secure cookie")
	}
	if got := cfg.Studio.DefaultBase(); got != "http://[::1]:8080" {
		t.Errorf("unexpected default base %s", got)
	}
	if cfg.Studio.DefaultTemplate != "hero" || cfg.Studio.SettingsFile != "/tmp/studio.json" || cfg.Studio.HelpFile != "/tmp/help.md" {
		t.Errorf("unexpected studio config: %+v", cfg.Studio)
	}
	if cfg.Snapshot.Timeout != time.Minute || cfg.Snapshot.ChromePath != "/usr/bin/chromium" {
		t.Errorf("unexpected snapshot config: %+v", cfg.Snapshot)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected lowercased log level, got %s", cfg.LogLevel)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nSTUDIO_DEFAULT_PORT=9000\nexport STUDIO_DEFAULT_TEMPLATE=\"card\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env := map[string]string{"STUDIO_DEFAULT_TEMPLATE": "explicit"}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(path), fixedConfigDir(dir))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Studio.DefaultPort != "9000" {
		t.Errorf("expected port from .env, got %s", cfg.Studio.DefaultPort)
	}
	if cfg.Studio.DefaultTemplate != "explicit" {
		t.Errorf("expected explicit map to win over .env, got %s", cfg.Studio.DefaultTemplate)
	}
}

func TestLoadIgnoresMissingDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.env")
	if _, err := Load(WithoutSystemEnv(), WithEnvFile(path), fixedConfigDir(t.TempDir())); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"STUDIO_READ_TIMEOUT":     "soon",
		"STUDIO_DEFAULT_PORT":     "70000",
		"STUDIO_COOKIE_BLOCK_KEY": "short",
		"STUDIO_SNAPSHOT_TIMEOUT": "-1s",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), fixedConfigDir(t.TempDir()))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	fields := vErr.Fields()
	want := map[string]bool{
		"STUDIO_READ_TIMEOUT":     false,
		"STUDIO_COOKIE_BLOCK_KEY": false,
		"Studio.DefaultPort":      false,
		"Snapshot.Timeout":        false,
	}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected %s in validation fields %v", field, fields)
		}
	}
}

func TestLoadWithoutConfigDir(t *testing.T) {
	noDir := WithUserConfigDir(func() (string, error) { return "", errors.New("no home") })
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), noDir)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	cfg, err := Load(WithEnvMap(map[string]string{"STUDIO_SETTINGS_FILE": "settings.json"}), WithoutSystemEnv(), WithEnvFile(""), noDir)
	if err != nil {
		t.Fatalf("explicit settings file should satisfy validation: %v", err)
	}
	if cfg.Studio.SettingsFile != "settings.json" {
		t.Errorf("unexpected settings file %s", cfg.Studio.SettingsFile)
	}
}
