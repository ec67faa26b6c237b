package tracking

import (
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu  sync.RWMutex
	doc document
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with the given items.
func NewMemoryStore(packages []TrackedPackage, themes []TrackedTheme) *MemoryStore {
	return &MemoryStore{doc: document{
		Packages: append([]TrackedPackage(nil), packages...),
		Themes:   append([]TrackedTheme(nil), themes...),
	}}
}

func (s *MemoryStore) ListPackages() ([]TrackedPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone().Packages, nil
}

func (s *MemoryStore) ListThemes() ([]TrackedTheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone().Themes, nil
}

func (s *MemoryStore) UpsertPackage(p TrackedPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.upsertPackage(p)
	return nil
}

func (s *MemoryStore) UpsertTheme(t TrackedTheme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.upsertTheme(t)
	return nil
}

func (s *MemoryStore) ContainsPackage(repo string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.findPackage(repo) >= 0, nil
}

func (s *MemoryStore) ContainsTheme(repo string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.findTheme(repo) >= 0, nil
}

func (s *MemoryStore) RemovePackage(repo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.doc.removePackage(repo) {
		return fmt.Errorf("package %s is not tracked", repo)
	}
	return nil
}

func (s *MemoryStore) RemoveTheme(repo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.doc.removeTheme(repo) {
		return fmt.Errorf("theme %s is not tracked", repo)
	}
	return nil
}

func (s *MemoryStore) OwnerOf(packageID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.doc.ownerOf(packageID)
	return owner, ok, nil
}
