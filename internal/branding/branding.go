// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary with //go:embed. Forks that ship
// the extension from a different repository edit that file and rebuild.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
	Branch      string `yaml:"branch"`
	RawBaseURL  string `yaml:"raw_base_url"`
	APIBaseURL  string `yaml:"api_base_url"`
	UserAgent   string `yaml:"user_agent"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "membank",
			DisplayName: "Roo Code Memory Bank",
			Description: "Installer and updater for the Roo Code Memory Bank extension",
			HomeDir:     ".membank",
			EnvPrefix:   "MEMBANK",
			GoModule:    "github.com/membank-rc/membank",
			GitHubRepo:  "GreatScottyMac/roo-code-memory-bank",
			Branch:      "main",
			RawBaseURL:  "https://raw.githubusercontent.com",
			APIBaseURL:  "https://api.github.com",
			UserAgent:   "membank-rc",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "membank").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".membank").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "MEMBANK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" the extension files are served from.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// Branch returns the branch the extension files are read from.
func Branch() string { load(); return defaults.Branch }

// RawBaseURL returns the host serving raw file content.
func RawBaseURL() string { load(); return defaults.RawBaseURL }

// APIBaseURL returns the GitHub API root used for directory listings.
func APIBaseURL() string { load(); return defaults.APIBaseURL }

// UserAgent returns the identifying User-Agent sent with every request.
func UserAgent() string { load(); return defaults.UserAgent }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("timeout") → "MEMBANK_TIMEOUT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
