// Package config loads application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

// NewConfig loads configuration from environment using viper with typed defaults and validation.
func NewConfig() (*Config, error) {
	return Load(envFile)
}

// Load reads dotenv values from envPath (missing file is fine), then the
// process environment, and validates the result.
func Load(envPath string) (*Config, error) {
	if err := preloadDotenv(envPath); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	register(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// settings lists every configuration key with its default. A nil default
// means the key is only read from the environment.
var settings = []struct {
	key string
	def interface{}
}{
	{"logging.level", "debug"},

	{"server.host", "0.0.0.0"},
	{"server.port", 8080},
	{"server.shutdown_timeout", 5 * time.Second},

	{"http.request_timeout", 3 * time.Second},

	{"storage.backend", BackendPostgres},

	{"postgres.host", "localhost"},
	{"postgres.port", 5432},
	{"postgres.user", "postgres"},
	{"postgres.password", "postgres"},
	{"postgres.db_name", "group_task_tracker_db"},
	{"postgres.ssl_mode", "disable"},
	{"postgres.migrations_dir", "db/migrations"},
	{"postgres.migrate_timeout", 10 * time.Second},
	{"postgres.query_timeout", 2 * time.Second},
	{"postgres.max_conns", 10},
	{"postgres.min_conns", 2},

	{"auth.jwt_secret", nil},
	{"auth.issuer", ""},

	{"ai.enabled", false},
	{"ai.api_key", nil},
	{"ai.base_url", ""},
	{"ai.model", "gpt-4o-mini"},
	{"ai.temperature", 0.3},
	{"ai.max_tokens", 2000},
	{"ai.timeout", 30 * time.Second},

	{"distribution.preview_ttl", 24 * time.Hour},
	{"distribution.sweep_interval", 15 * time.Minute},
	{"distribution.max_range_days", 30},
	{"distribution.async_generation", false},

	{"monitoring.sample_capacity", 500},
	{"monitoring.metrics_path", "/metrics"},
}

func register(v *viper.Viper) {
	for _, s := range settings {
		if s.def != nil {
			v.SetDefault(s.key, s.def)
		}
		_ = v.BindEnv(s.key)
	}
}

// preloadDotenv copies dotenv entries into the process environment without
// overriding variables that are already set.
func preloadDotenv(path string) error {
	entries, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for k, val := range entries {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}
