package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// It is built once at startup and handed to every component that needs it.
type Config struct {
	App      AppConfig      `toml:"app"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	API      APIConfig      `toml:"api"`
}

// AppConfig contains HTTP server settings.
type AppConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// LoggingConfig contains log levels for the application and the root (server, SQL) loggers.
type LoggingConfig struct {
	Level     string `toml:"level"`
	LevelRoot string `toml:"level_root"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string         `toml:"driver"`
	Path         string         `toml:"path"`
	Host         string         `toml:"host"`
	Port         int            `toml:"port"`
	PoolSize     int            `toml:"pool_size"`
	MaxIdleConns int            `toml:"max_idle_conns"`
	Postgres     PostgresConfig `toml:"postgres"`
}

// PostgresConfig contains Postgres credentials.
type PostgresConfig struct {
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
}

// APIConfig contains versioning and routing settings for the HTTP API.
type APIConfig struct {
	Versions    []int  `toml:"versions"`
	BaseVersion int    `toml:"base_version"`
	Prefix      string `toml:"prefix"`
	DocsDisable bool   `toml:"docs_disable"`
	AccessTTL   string `toml:"access_ttl"`
	RefreshTTL  string `toml:"refresh_ttl"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}

	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Encode writes the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return []byte(b.String()), nil
}

// Validate normalizes derived values and checks cross-field constraints.
func (c *Config) Validate() error {
	c.API.Prefix = normalizePrefix(c.API.Prefix)

	if !slices.Contains(c.API.Versions, c.API.BaseVersion) {
		return fmt.Errorf("%w: base_version %d is not one of %v", ErrInvalidConfig, c.API.BaseVersion, c.API.Versions)
	}

	for _, lvl := range []string{c.Logging.Level, c.Logging.LevelRoot} {
		if _, err := ParseLevel(lvl); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if _, err := c.API.AccessTimedelta(); err != nil {
		return fmt.Errorf("%w: access_ttl: %v", ErrInvalidConfig, err)
	}

	if _, err := c.API.RefreshTimedelta(); err != nil {
		return fmt.Errorf("%w: refresh_ttl: %v", ErrInvalidConfig, err)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Database.Driver)
	}

	return nil
}

// Debug reports whether the application log level is DEBUG.
func (c *Config) Debug() bool {
	lvl, err := ParseLevel(c.Logging.Level)
	return err == nil && lvl == debugLevel
}

// Addr returns the host:port the HTTP server binds to.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// DSN builds the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.Postgres.User, d.Postgres.Password),
			Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:   "/" + d.Postgres.DB,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return u.String()
	default:
		return d.Path + "?_foreign_keys=1"
	}
}

// AccessTimedelta parses access_ttl.
func (a APIConfig) AccessTimedelta() (time.Duration, error) {
	return ConvertTime(a.AccessTTL)
}

// RefreshTimedelta parses refresh_ttl.
func (a APIConfig) RefreshTimedelta() (time.Duration, error) {
	return ConvertTime(a.RefreshTTL)
}

// RootPath returns the versioned API root, e.g. /api/v1. A zero version selects the base version.
func (a APIConfig) RootPath(version int) string {
	if version == 0 {
		version = a.BaseVersion
	}
	return fmt.Sprintf("%s/v%d", a.Prefix, version)
}

// UserRootPath returns the unversioned API root.
func (a APIConfig) UserRootPath() string {
	return a.Prefix
}

// DocsPath returns the documentation path of the given API version.
func (a APIConfig) DocsPath(version int) string {
	return a.RootPath(version) + "/docs#"
}

// LoginPath returns the login route under the unversioned root.
func (a APIConfig) LoginPath(route string) string {
	if route == "" {
		route = "/auth/login-form"
	}
	return a.UserRootPath() + route
}

// VersionString describes the API and application versions.
func VersionString(apiVersion int) string {
	return fmt.Sprintf("API: %d | APP: %s", apiVersion, AppVersion())
}

func normalizePrefix(prefix string) string {
	if prefix == "" {
		return prefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}
