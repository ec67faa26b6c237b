package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func perm(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info.Mode().Perm()
}

func TestPublish(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no permission bits on windows")
	}
	dir, err := os.MkdirTemp(t.TempDir(), "staged-*")
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "main.js")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := Publish(dir); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := perm(t, dir); got != DirMode {
		t.Errorf("dir permissions = %o, want %o", got, DirMode)
	}
	if got := perm(t, file); got != FileMode {
		t.Errorf("file permissions = %o, want %o", got, FileMode)
	}
	if got := perm(t, filepath.Join(dir, "nested")); got != 0o700 {
		t.Errorf("nested dir permissions changed to %o", got)
	}
}

func TestPublish_MissingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no permission bits on windows")
	}
	if err := Publish(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRestrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("github_token: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Restrict(path); err != nil {
		t.Fatalf("Restrict: %v", err)
	}
	if runtime.GOOS != "windows" {
		if got := perm(t, path); got != PrivateMode {
			t.Errorf("permissions = %o, want %o", got, PrivateMode)
		}
	}
}
