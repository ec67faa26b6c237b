package tracking

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentx-labs/brat/internal/platform"
	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"
)

// FileStore keeps the tracked lists in a YAML file. A sibling .lock file
// guards every read-modify-write so separate processes (a scheduled sweep
// and an interactive add) do not lose each other's changes.
//
// A flock.Flock is shared by every goroutine of the process, so mu keeps
// in-process callers from releasing each other's file lock.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), platform.DirMode); err != nil {
		return fmt.Errorf("creating tracking directory: %w", err)
	}
	return nil
}

func (s *FileStore) load() (document, error) {
	var doc document
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("reading tracking file %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing tracking file %s: %w", s.path, err)
	}
	return doc, nil
}

// save writes doc to a temp file and renames it over the original.
func (s *FileStore) save(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling tracking file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tracking-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp tracking file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing tracking file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing tracking file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing tracking file: %w", err)
	}
	return nil
}

func (s *FileStore) read(fn func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.RLock(); err != nil {
		return fmt.Errorf("locking tracking file: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(&doc)
	return nil
}

func (s *FileStore) update(fn func(*document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking tracking file: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) ListPackages() ([]TrackedPackage, error) {
	var out []TrackedPackage
	err := s.read(func(d *document) { out = d.Packages })
	return out, err
}

func (s *FileStore) ListThemes() ([]TrackedTheme, error) {
	var out []TrackedTheme
	err := s.read(func(d *document) { out = d.Themes })
	return out, err
}

func (s *FileStore) UpsertPackage(p TrackedPackage) error {
	return s.update(func(d *document) error {
		d.upsertPackage(p)
		return nil
	})
}

func (s *FileStore) UpsertTheme(t TrackedTheme) error {
	return s.update(func(d *document) error {
		d.upsertTheme(t)
		return nil
	})
}

func (s *FileStore) ContainsPackage(repo string) (bool, error) {
	var found bool
	err := s.read(func(d *document) { found = d.findPackage(repo) >= 0 })
	return found, err
}

func (s *FileStore) ContainsTheme(repo string) (bool, error) {
	var found bool
	err := s.read(func(d *document) { found = d.findTheme(repo) >= 0 })
	return found, err
}

func (s *FileStore) RemovePackage(repo string) error {
	return s.update(func(d *document) error {
		if !d.removePackage(repo) {
			return fmt.Errorf("package %s is not tracked", repo)
		}
		return nil
	})
}

func (s *FileStore) RemoveTheme(repo string) error {
	return s.update(func(d *document) error {
		if !d.removeTheme(repo) {
			return fmt.Errorf("theme %s is not tracked", repo)
		}
		return nil
	})
}

func (s *FileStore) OwnerOf(packageID string) (string, bool, error) {
	var (
		owner string
		ok    bool
	)
	if err := s.read(func(d *document) { owner, ok = d.ownerOf(packageID) }); err != nil {
		return "", false, err
	}
	return owner, ok, nil
}
