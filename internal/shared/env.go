package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// ApplyEnv overlays environment variables, and an optional dotenv file, onto c.
//
// ENV_NAME names the dotenv file (default ".env"). A relative name is searched for
// from the working directory upwards. ENV_IGNORE skips the file entirely.
// Process environment always wins over the file.
func ApplyEnv(c *Config) error {
	v := viper.New()
	v.AutomaticEnv()

	if !ParseBool(os.Getenv("ENV_IGNORE")) {
		name := os.Getenv("ENV_NAME")
		if name == "" {
			name = ".env"
		}
		if path := findDotenv(name); path != "" {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read env file %s: %w", path, err)
			}
		}
	}

	return applyValues(v, c)
}

func applyValues(v *viper.Viper, c *Config) error {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) error {
		if !v.IsSet(key) {
			return nil
		}
		n, err := strconv.Atoi(v.GetString(key))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v.GetString(key))
		}
		*dst = n
		return nil
	}

	str("server_host", &c.App.Host)
	str("log_level", &c.Logging.Level)
	str("log_level_root", &c.Logging.LevelRoot)
	str("database_driver", &c.Database.Driver)
	str("database_host", &c.Database.Host)
	str("database_path", &c.Database.Path)
	str("postgres_user", &c.Database.Postgres.User)
	str("postgres_password", &c.Database.Postgres.Password)
	str("postgres_db", &c.Database.Postgres.DB)
	str("api_prefix", &c.API.Prefix)
	str("api_access_ttl", &c.API.AccessTTL)
	str("api_refresh_ttl", &c.API.RefreshTTL)

	errs := []error{
		num("server_port", &c.App.Port),
		num("database_port", &c.Database.Port),
		num("database_pool_size", &c.Database.PoolSize),
		num("api_base_version", &c.API.BaseVersion),
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if v.IsSet("api_docs_disable") {
		c.API.DocsDisable = ParseBool(v.GetString("api_docs_disable"))
	}

	if v.IsSet("api_versions") {
		var versions []int
		for _, item := range SplitList(v.GetString("api_versions")) {
			n, err := strconv.Atoi(item)
			if err != nil {
				return fmt.Errorf("%w: api_versions=%q", ErrInvalidConfig, v.GetString("api_versions"))
			}
			versions = append(versions, n)
		}
		c.API.Versions = versions
	}

	return nil
}

// findDotenv resolves name against the working directory and its parents.
func findDotenv(name string) string {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name
		}
		return ""
	}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
