package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/membank-rc/membank/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys. Each key can be overridden by the env var
// MEMBANK_<KEY>, e.g. MEMBANK_MAX_RETRIES.
const (
	KeyTimeout     = "timeout"
	KeyHeadTimeout = "head_timeout"
	KeyMaxRetries  = "max_retries"
	KeyRepo        = "repo"
	KeyBranch      = "branch"
	KeyRawBaseURL  = "raw_base_url"
	KeyAPIBaseURL  = "api_base_url"
)

// Settings is the resolved configuration handed to the remote client and
// the sync engine.
type Settings struct {
	// Timeout bounds a single GET request.
	Timeout time.Duration
	// HeadTimeout bounds a single HEAD availability check.
	HeadTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	Repo       string
	Branch     string
	RawBaseURL string
	APIBaseURL string
}

// rawSettings mirrors Settings with the units used in the file and env.
type rawSettings struct {
	Timeout     int    `mapstructure:"timeout" validate:"min=1,max=300"`
	HeadTimeout int    `mapstructure:"head_timeout" validate:"min=1,max=300"`
	MaxRetries  int    `mapstructure:"max_retries" validate:"min=0,max=10"`
	Repo        string `mapstructure:"repo" validate:"required"`
	Branch      string `mapstructure:"branch" validate:"required"`
	RawBaseURL  string `mapstructure:"raw_base_url" validate:"required,url"`
	APIBaseURL  string `mapstructure:"api_base_url" validate:"required,url"`
}

// Defaults returns the default value of every known key.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		KeyTimeout:     10, // seconds
		KeyHeadTimeout: 5,  // seconds
		KeyMaxRetries:  3,
		KeyRepo:        branding.GitHubRepo(),
		KeyBranch:      branding.Branch(),
		KeyRawBaseURL:  branding.RawBaseURL(),
		KeyAPIBaseURL:  branding.APIBaseURL(),
	}
}

// Keys returns the sorted list of known configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(Defaults()))
	for k := range Defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a recognised configuration key.
func IsKnownKey(key string) bool {
	_, ok := Defaults()[key]
	return ok
}

// Dir returns the path to the config directory (~/.membank/).
// MEMBANK_HOME overrides the location.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.membank/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Store reads and writes one config file layered over defaults and env.
type Store struct {
	v    *viper.Viper
	path string
}

// Open initializes a Store backed by the file at path. A missing file is not
// an error; an unreadable or malformed one is.
func Open(path string) (*Store, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking config file %s: %w", path, err)
	}

	return &Store{v: v, path: path}, nil
}

// Load opens the user config file and resolves Settings from it.
func Load() (*Settings, error) {
	s, err := Open(FilePath())
	if err != nil {
		return nil, err
	}
	return s.Settings()
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Get returns a config value by key. Returns empty string if not set.
func (s *Store) Get(key string) string {
	return s.v.GetString(key)
}

// Set validates a key-value pair against the layered settings and saves it
// to the config file. Only keys already in the file and key itself are
// written; defaults and environment values stay out of it.
func (s *Store) Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known keys: %v)", key, Keys())
	}

	s.v.Set(key, value)
	if _, err := s.Settings(); err != nil {
		return err
	}

	file := viper.New()
	file.SetConfigFile(s.path)
	file.SetConfigType(fileType)
	if _, err := os.Stat(s.path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", s.path, err)
		}
	}
	file.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := file.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Settings unmarshals and validates the layered configuration.
func (s *Store) Settings() (*Settings, error) {
	var raw rawSettings
	if err := s.v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validateSettings(&raw); err != nil {
		return nil, err
	}

	return &Settings{
		Timeout:     time.Duration(raw.Timeout) * time.Second,
		HeadTimeout: time.Duration(raw.HeadTimeout) * time.Second,
		MaxRetries:  raw.MaxRetries,
		Repo:        raw.Repo,
		Branch:      raw.Branch,
		RawBaseURL:  raw.RawBaseURL,
		APIBaseURL:  raw.APIBaseURL,
	}, nil
}
