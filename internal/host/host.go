package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrHostWriteFailed marks a rejected install. It is not retried.
var ErrHostWriteFailed = errors.New("host write failed")

// Host is what the installer needs from the host application.
type Host interface {
	// WriteExtensionFiles replaces the files of packageID. Readers never
	// observe a mix of old and new files.
	WriteExtensionFiles(ctx context.Context, packageID string, files map[string][]byte) error
	// ReloadExtension asks the host to reload an installed package.
	ReloadExtension(ctx context.Context, packageID string) error
	// EnableExtension turns on a freshly installed package.
	EnableExtension(ctx context.Context, packageID string) error
	// IsExtensionIdentifierKnown reports whether packageID is installed.
	IsExtensionIdentifierKnown(packageID string) bool
	// InstalledVersion returns the manifest version of an installed package.
	InstalledVersion(packageID string) (string, bool)
	// WriteTheme replaces the files of the theme called name.
	WriteTheme(ctx context.Context, name string, files map[string][]byte) error
}

// ValidateName rejects identifiers that are unsafe as a directory name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}
