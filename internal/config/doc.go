// Package config manages user-level settings stored at ~/.brat/config.yaml.
// Values can be overridden with BRAT_* environment variables. Settings
// gathers the keys the sweep needs into one typed struct with defaults.
package config
