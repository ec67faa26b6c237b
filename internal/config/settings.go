package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/agentx-labs/brat/internal/branding"
	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyVault                 = "vault"
	KeyGitHubToken           = "github_token"
	KeyAPIBase               = "api_base"
	KeyRawBase               = "raw_base"
	KeyIncludePrereleases    = "include_prereleases"
	KeyIncludeDrafts         = "include_drafts"
	KeyMaxAssetBytes         = "max_asset_bytes"
	KeyRetryAttempts         = "retry_attempts"
	KeyWorkers               = "workers"
	KeyRequestTimeout        = "request_timeout"
	KeyEnableAfterInstall    = "enable_after_install"
	KeyUpdateAtStartup       = "update_at_startup"
	KeyUpdateThemesAtStartup = "update_themes_at_startup"
	KeyReloadCommand         = "reload_command"
	KeySweepInterval         = "sweep_interval"
)

// Defaults.
const (
	DefaultMaxAssetBytes  int64 = 32 << 20
	DefaultRetryAttempts        = 3
	DefaultWorkers              = 4
	DefaultRequestTimeout       = 30 * time.Second
	DefaultSweepInterval        = 6 * time.Hour
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindCount
	kindDuration
)

var knownKeys = map[string]kind{
	KeyVault:                 kindString,
	KeyGitHubToken:           kindString,
	KeyAPIBase:               kindString,
	KeyRawBase:               kindString,
	KeyIncludePrereleases:    kindBool,
	KeyIncludeDrafts:         kindBool,
	KeyMaxAssetBytes:         kindCount,
	KeyRetryAttempts:         kindCount,
	KeyWorkers:               kindCount,
	KeyRequestTimeout:        kindDuration,
	KeyEnableAfterInstall:    kindBool,
	KeyUpdateAtStartup:       kindBool,
	KeyUpdateThemesAtStartup: kindBool,
	KeyReloadCommand:         kindString,
	KeySweepInterval:         kindDuration,
}

// Keys returns every setting name in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseValue converts a command-line value into the type stored for key.
func parseValue(key, value string) (any, error) {
	k, ok := knownKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	switch k {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return b, nil
	case kindCount:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		return n, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration such as 30s or 6h, got %q", key, value)
		}
		return value, nil
	}
	return value, nil
}

// Settings is the typed view of the configuration used by the sweep.
type Settings struct {
	Vault                 string
	GitHubToken           string
	APIBase               string
	RawBase               string
	IncludePrereleases    bool
	IncludeDrafts         bool
	MaxAssetBytes         int64
	RetryAttempts         int
	Workers               int
	RequestTimeout        time.Duration
	EnableAfterInstall    bool
	UpdateAtStartup       bool
	UpdateThemesAtStartup bool
	ReloadCommand         string
	SweepInterval         time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBase, branding.APIBase())
	v.SetDefault(KeyRawBase, branding.RawBase())
	v.SetDefault(KeyMaxAssetBytes, DefaultMaxAssetBytes)
	v.SetDefault(KeyRetryAttempts, DefaultRetryAttempts)
	v.SetDefault(KeyWorkers, DefaultWorkers)
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyEnableAfterInstall, true)
	v.SetDefault(KeyUpdateAtStartup, true)
	v.SetDefault(KeyUpdateThemesAtStartup, true)
	v.SetDefault(KeySweepInterval, DefaultSweepInterval)
}

// LoadSettings returns the settings held by the global Viper instance.
// Call Load first.
func LoadSettings() Settings {
	return SettingsFrom(viper.GetViper())
}

// SettingsFrom reads Settings out of v, clamping out-of-range numbers back
// to their defaults. GITHUB_TOKEN is honoured when no token is configured.
func SettingsFrom(v *viper.Viper) Settings {
	s := Settings{
		Vault:                 v.GetString(KeyVault),
		GitHubToken:           v.GetString(KeyGitHubToken),
		APIBase:               v.GetString(KeyAPIBase),
		RawBase:               v.GetString(KeyRawBase),
		IncludePrereleases:    v.GetBool(KeyIncludePrereleases),
		IncludeDrafts:         v.GetBool(KeyIncludeDrafts),
		MaxAssetBytes:         v.GetInt64(KeyMaxAssetBytes),
		RetryAttempts:         v.GetInt(KeyRetryAttempts),
		Workers:               v.GetInt(KeyWorkers),
		RequestTimeout:        v.GetDuration(KeyRequestTimeout),
		EnableAfterInstall:    v.GetBool(KeyEnableAfterInstall),
		UpdateAtStartup:       v.GetBool(KeyUpdateAtStartup),
		UpdateThemesAtStartup: v.GetBool(KeyUpdateThemesAtStartup),
		ReloadCommand:         v.GetString(KeyReloadCommand),
		SweepInterval:         v.GetDuration(KeySweepInterval),
	}

	if s.GitHubToken == "" {
		s.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if s.APIBase == "" {
		s.APIBase = branding.APIBase()
	}
	if s.RawBase == "" {
		s.RawBase = branding.RawBase()
	}
	if s.MaxAssetBytes <= 0 {
		s.MaxAssetBytes = DefaultMaxAssetBytes
	}
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = DefaultRetryAttempts
	}
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = DefaultSweepInterval
	}
	return s
}

// TrackingPath returns the path of the tracked-repository file.
func TrackingPath() string {
	return filepath.Join(Dir(), "tracking.yaml")
}
