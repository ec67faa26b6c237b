package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Permission bits for everything written under the vault and the home dir.
const (
	DirMode     os.FileMode = 0o755
	FileMode    os.FileMode = 0o644
	PrivateMode os.FileMode = 0o600
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// Publish makes dir and the regular files directly inside it readable by
// other processes, such as the host application loading an extension.
func Publish(dir string) error {
	if err := Chmod(dir, DirMode); err != nil {
		return fmt.Errorf("chmod %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := Chmod(path, FileMode); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return nil
}

// Restrict limits path to its owner. Used for files that may carry a token.
func Restrict(path string) error {
	return Chmod(path, PrivateMode)
}
