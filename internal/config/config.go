// Package config loads client settings from defaults, TOML files, and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Makepad-fr/freetodo/internal/logging"
)

// Default values.
const (
	DefaultEndpoint    = "http://localhost:8000"
	DefaultStorageKey  = "todoItems"
	DefaultBackend     = BackendFile
	DefaultRedisPrefix = "freetodo:"
	DefaultTableName   = "freetodo"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"

	ProjectFileName = ".freetodo.toml"
	UserFileName    = "config.toml"
	appDirName      = "freetodo"
)

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendTable = "table"
)

// Config holds the full client configuration.
type Config struct {
	Endpoint        string   `toml:"endpoint"`
	RequestTimeout  Duration `toml:"request_timeout"`
	StorageKey      string   `toml:"storage_key"`
	ClearInputOnAdd bool     `toml:"clear_input_on_add"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`

	Store StoreConfig `toml:"store"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string `toml:"backend"`

	// file
	Dir string `toml:"dir"`

	// redis
	RedisURL    string   `toml:"redis_url"`
	RedisPrefix string   `toml:"redis_prefix"`
	RedisTTL    Duration `toml:"redis_ttl"`

	// table
	TableConnectionString string `toml:"table_connection_string"`
	TableName             string `toml:"table_name"`
	TablePartition        string `toml:"table_partition"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	dir := UserDir()
	return &Config{
		Endpoint:        DefaultEndpoint,
		StorageKey:      DefaultStorageKey,
		ClearInputOnAdd: true,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		LogFile:         filepath.Join(dir, "todo.log"),
		Store: StoreConfig{
			Backend:     DefaultBackend,
			Dir:         dir,
			RedisPrefix: DefaultRedisPrefix,
			TableName:   DefaultTableName,
		},
	}
}

// UserDir is where the user config, credentials, log and file store live.
// FREETODO_HOME overrides it.
func UserDir() string {
	if v := strings.TrimSpace(os.Getenv("FREETODO_HOME")); v != "" {
		return expandPath(v)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "." + appDirName
		}
		return filepath.Join(home, "."+appDirName)
	}
	return filepath.Join(base, appDirName)
}

// Load builds the configuration in priority order:
// 1. Defaults
// 2. User config file (<UserDir>/config.toml)
// 3. Project config file (./.freetodo.toml), or explicitPath when given
// 4. Environment variables
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	if p := filepath.Join(UserDir(), UserFileName); fileExists(p) {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}

	if explicitPath != "" {
		if err := loadFile(cfg, explicitPath); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicitPath, err)
		}
	} else if fileExists(ProjectFileName) {
		if err := loadFile(cfg, ProjectFileName); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", ProjectFileName, err)
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadEnv(cfg *Config) error {
	str := map[string]*string{
		"FREETODO_ENDPOINT":                &cfg.Endpoint,
		"FREETODO_STORAGE_KEY":             &cfg.StorageKey,
		"FREETODO_LOG_LEVEL":               &cfg.LogLevel,
		"FREETODO_LOG_FORMAT":              &cfg.LogFormat,
		"FREETODO_LOG_FILE":                &cfg.LogFile,
		"FREETODO_STORE":                   &cfg.Store.Backend,
		"FREETODO_DATA_DIR":                &cfg.Store.Dir,
		"FREETODO_REDIS_URL":               &cfg.Store.RedisURL,
		"FREETODO_TABLE_CONNECTION_STRING": &cfg.Store.TableConnectionString,
		"FREETODO_TABLE_NAME":              &cfg.Store.TableName,
	}
	for name, dst := range str {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("FREETODO_REQUEST_TIMEOUT")); v != "" {
		if err := cfg.RequestTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("FREETODO_REQUEST_TIMEOUT: %w", err)
		}
	}
	if v := strings.TrimSpace(os.Getenv("FREETODO_CLEAR_INPUT")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FREETODO_CLEAR_INPUT: %w", err)
		}
		cfg.ClearInputOnAdd = b
	}
	return nil
}

// Finalize expands paths and checks the result.
func (c *Config) Finalize() error {
	c.Store.Dir = expandPath(c.Store.Dir)
	c.LogFile = expandPath(c.LogFile)
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	return c.Validate()
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("endpoint %q must be an http(s) URL", c.Endpoint))
	}
	if c.RequestTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative"))
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errs = append(errs, fmt.Errorf("storage_key is empty"))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format %q is not one of text, json, logfmt", c.LogFormat))
	}
	switch c.Store.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, fmt.Errorf("store.redis_url is required for the redis backend"))
		}
		if c.Store.RedisTTL.Duration < 0 {
			errs = append(errs, fmt.Errorf("store.redis_ttl must not be negative"))
		}
	case BackendTable:
		if c.Store.TableConnectionString == "" {
			errs = append(errs, fmt.Errorf("store.table_connection_string is required for the table backend"))
		}
		if c.Store.TableName == "" {
			errs = append(errs, fmt.Errorf("store.table_name is required for the table backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of file, redis, table", c.Store.Backend))
	}
	return errors.Join(errs...)
}

// WriteTOML renders the configuration, e.g. for `todo config`.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// expandPath expands ~/ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
