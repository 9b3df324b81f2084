package internal

import (
	"fmt"
	"log/slog"

	"github.com/adhocore/gronx"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Cache backends.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendPebble = "pebble"
	CacheBackendMemory = "memory"
)

// Remote modes.
const (
	RemoteModeHTTP   = "http"
	RemoteModeMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Cache    CacheConfig       `yaml:"cache"`
	Remote   RemoteConfig      `yaml:"remote"`
	Sync     SyncConfig        `yaml:"sync"`
	Trackers TrackersConfig    `yaml:"trackers"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// DefaultUser is the user requests act as when they carry no
	// X-User-ID header.
	DefaultUser string `yaml:"default_user"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultUser, validation.Required),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CacheConfig holds the local cache store configuration.
type CacheConfig struct {
	Backend string `yaml:"backend"`
	// Path is the SQLite file or Pebble directory. Unused by the memory
	// backend.
	Path string `yaml:"path"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = CacheBackendSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(CacheBackendSQLite, CacheBackendPebble, CacheBackendMemory)),
	); err != nil {
		return err
	}
	if c.Backend != CacheBackendMemory && c.Path == "" {
		return fmt.Errorf("cache: backend %q needs a path", c.Backend)
	}
	return nil
}

// RemoteConfig holds the remote document store configuration.
//
// Mode controls which gateway backs the service:
//   - "memory" (default): in-process store, suitable for local dev.
//   - "http": hosted REST store; BaseURL must be non-empty.
type RemoteConfig struct {
	Mode            string  `yaml:"mode"`
	BaseURL         string  `yaml:"base_url"`
	Token           string  `yaml:"token"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	WritesPerSecond float64 `yaml:"writes_per_second"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = RemoteModeMemory
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(RemoteModeHTTP, RemoteModeMemory)),
	); err != nil {
		return err
	}
	if c.Mode == RemoteModeHTTP && c.BaseURL == "" {
		return fmt.Errorf("remote: mode is %q but base_url is empty", RemoteModeHTTP)
	}
	return nil
}

// SyncConfig holds the sync orchestrator configuration.
type SyncConfig struct {
	// Months is the bulk-load window for habit and moment documents.
	Months int `yaml:"months"`
	// Cron re-runs the sync check in the background. Empty disables it.
	Cron string `yaml:"cron"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Months, validation.Min(1), validation.Max(120)),
	); err != nil {
		return err
	}
	if c.Cron != "" && !gronx.IsValid(c.Cron) {
		return fmt.Errorf("sync: invalid cron expression %q", c.Cron)
	}
	return nil
}

// TrackersConfig holds the tracker descriptor table configuration.
type TrackersConfig struct {
	// Path is an optional YAML descriptor file. Empty uses the built-in
	// defaults.
	Path string `yaml:"path"`
	// Watch hot-reloads the descriptor file on change.
	Watch bool `yaml:"watch"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			DefaultUser: "local",
		},
		Cache: CacheConfig{
			Backend: CacheBackendSQLite,
			Path:    "./daybook.db",
		},
		Remote: RemoteConfig{
			Mode:            RemoteModeMemory,
			TimeoutSeconds:  15,
			WritesPerSecond: 10,
		},
		Sync: SyncConfig{
			Months: 12,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
