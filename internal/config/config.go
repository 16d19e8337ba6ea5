package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultHTTPAddr        = ":3000"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultHost            = "localhost"
	defaultPort            = "7777"
	defaultTemplate        = "main"
	defaultSnapshotTimeout = 30 * time.Second
	defaultLogLevel        = "info"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Cookie   CookieConfig
	Studio   StudioConfig
	Snapshot SnapshotConfig
	LogLevel string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CookieConfig holds the settings cookie keys. Empty keys are generated per process.
type CookieConfig struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
}

// StudioConfig holds the form defaults and file locations.
type StudioConfig struct {
	DefaultHost     string
	DefaultPort     string
	DefaultTemplate string
	SettingsFile    string
	HelpFile        string
}

// DefaultBase returns http://{host}:{port} for the configured defaults.
func (c StudioConfig) DefaultBase() string {
	return "http://" + net.JoinHostPort(c.DefaultHost, c.DefaultPort)
}

// SnapshotConfig controls headless browser captures.
type SnapshotConfig struct {
	Timeout    time.Duration
	ChromePath string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	userConfig   func() (string, error)
}

// WithEnvFile overrides the .env file path used for local overrides. An empty
// path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithUserConfigDir replaces os.UserConfigDir when resolving the default settings file.
func WithUserConfigDir(fn func() (string, error)) Option {
	return func(o *loaderOptions) {
		o.userConfig = fn
	}
}

// Load assembles the configuration by combining defaults, .env overrides and
// environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		userConfig:   os.UserConfigDir,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	var invalid []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, ok := durationWithDefault(lookup, key, fallback)
		if !ok {
			invalid = append(invalid, key)
		}
		return d
	}
	key := func(name string) []byte {
		k, ok := keyWithDefault(lookup, name)
		if !ok {
			invalid = append(invalid, name)
		}
		return k
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:         stringWithDefault(lookup, "STUDIO_HTTP_ADDR", defaultHTTPAddr),
			ReadTimeout:  duration("STUDIO_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: duration("STUDIO_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  duration("STUDIO_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Cookie: CookieConfig{
			HashKey:  key("STUDIO_COOKIE_HASH_KEY"),
			BlockKey: key("STUDIO_COOKIE_BLOCK_KEY"),
			Secure:   boolWithDefault(lookup, "STUDIO_COOKIE_SECURE", false),
		},
		Studio: StudioConfig{
			DefaultHost:     stringWithDefault(lookup, "STUDIO_DEFAULT_HOST", defaultHost),
			DefaultPort:     stringWithDefault(lookup, "STUDIO_DEFAULT_PORT", defaultPort),
			DefaultTemplate: stringWithDefault(lookup, "STUDIO_DEFAULT_TEMPLATE", defaultTemplate),
			SettingsFile:    stringWithDefault(lookup, "STUDIO_SETTINGS_FILE", ""),
			HelpFile:        stringWithDefault(lookup, "STUDIO_HELP_FILE", ""),
		},
		Snapshot: SnapshotConfig{
			Timeout:    duration("STUDIO_SNAPSHOT_TIMEOUT", defaultSnapshotTimeout),
			ChromePath: stringWithDefault(lookup, "STUDIO_CHROME_PATH", ""),
		},
		LogLevel: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
	}

	if cfg.Studio.SettingsFile == "" {
		if dir, err := options.userConfig(); err == nil {
			cfg.Studio.SettingsFile = filepath.Join(dir, "flayyer-studio", "settings.json")
		}
	}

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	missing := append([]string(nil), invalid...)

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		missing = append(missing, "Server.Addr")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if n := len(cfg.Cookie.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		missing = append(missing, "Cookie.BlockKey")
	}
	if port, err := strconv.Atoi(cfg.Studio.DefaultPort); err != nil || port <= 0 || port > 65535 {
		missing = append(missing, "Studio.DefaultPort")
	}
	if strings.TrimSpace(cfg.Studio.DefaultHost) == "" {
		missing = append(missing, "Studio.DefaultHost")
	}
	if cfg.Studio.SettingsFile == "" {
		missing = append(missing, "Studio.SettingsFile")
	}
	if cfg.Snapshot.Timeout <= 0 {
		missing = append(missing, "Snapshot.Timeout")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// durationWithDefault reports false when the key is set but unparsable.
func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback, false
	}
	return d, true
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

// keyWithDefault accepts base64 (std or url alphabet) or raw text keys.
func keyWithDefault(lookup func(string) (string, bool), key string) ([]byte, bool) {
	value, ok := lookup(key)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil, true
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(value); err == nil && len(decoded) >= 16 {
			return decoded, true
		}
	}
	if len(value) < 16 {
		return nil, false
	}
	return []byte(value), true
}
