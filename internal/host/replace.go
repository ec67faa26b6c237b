package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/brat/internal/platform"
)

// stageDir writes files into a fresh temp directory next to target so the
// final rename stays on one filesystem.
func stageDir(target string, files map[string][]byte) (string, error) {
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, platform.DirMode); err != nil {
		return "", fmt.Errorf("creating %s: %w", parent, err)
	}
	staged, err := os.MkdirTemp(parent, "."+filepath.Base(target)+".staging-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	for name, data := range files {
		if err := ValidateName(name); err != nil {
			os.RemoveAll(staged)
			return "", fmt.Errorf("file %q: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(staged, name), data, platform.FileMode); err != nil {
			os.RemoveAll(staged)
			return "", fmt.Errorf("writing %s: %w", name, err)
		}
	}
	// MkdirTemp creates 0700 directories.
	if err := platform.Publish(staged); err != nil {
		os.RemoveAll(staged)
		return "", fmt.Errorf("setting permissions on staging directory: %w", err)
	}
	return staged, nil
}

// swapDir moves staged into place at target. An existing target is kept as
// a backup until the swap succeeds and restored if it fails.
func swapDir(staged, target string) error {
	backupPath := target + ".backup"
	_ = os.RemoveAll(backupPath)

	hadTarget := false
	if _, err := os.Stat(target); err == nil {
		hadTarget = true
		if err := os.Rename(target, backupPath); err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
	}

	if err := os.Rename(staged, target); err != nil {
		if hadTarget {
			if rbErr := rollbackDir(backupPath, target); rbErr != nil {
				return fmt.Errorf("installing %s: %w (rollback failed: %v)", target, err, rbErr)
			}
		}
		return fmt.Errorf("installing %s: %w", target, err)
	}

	os.RemoveAll(backupPath)
	return nil
}

// rollbackDir restores the backup to the target path.
func rollbackDir(backupPath, target string) error {
	_ = os.RemoveAll(target)
	if err := os.Rename(backupPath, target); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// replaceDir stages files and swaps them in at target.
func replaceDir(target string, files map[string][]byte) error {
	staged, err := stageDir(target, files)
	if err != nil {
		return err
	}
	if err := swapDir(staged, target); err != nil {
		os.RemoveAll(staged)
		return err
	}
	return nil
}
