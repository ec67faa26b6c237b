// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Hard defaults apply when a key is missing.
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
	APIBase     string `yaml:"api_base"`
	RawBase     string `yaml:"raw_base"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:     "brat",
			DisplayName: "BRAT",
			Description: "Beta tester for host extensions published on GitHub releases",
			HomeDir:     ".brat",
			EnvPrefix:   "BRAT",
			APIBase:     "https://api.github.com",
			RawBase:     "https://raw.githubusercontent.com",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "brat").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".brat").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "BRAT").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// APIBase returns the default hosting API base URL.
func APIBase() string { load(); return defaults.APIBase }

// RawBase returns the default raw file content base URL.
func RawBase() string { load(); return defaults.RawBase }

// UserAgent returns the User-Agent sent on every hosting API request.
func UserAgent() string { return CLIName() + "-updater" }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("VAULT") → "BRAT_VAULT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
