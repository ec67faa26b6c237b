package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentx-labs/brat/internal/host"
	"github.com/agentx-labs/brat/internal/manifest"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/agentx-labs/brat/internal/updater"
	"github.com/stretchr/testify/require"
)

// fakeHub serves releases, asset downloads and raw files the way the
// hosting API does.
type fakeHub struct {
	server *httptest.Server

	mu       sync.Mutex
	latest   map[string]string                       // repo -> tag
	releases map[string]map[string]map[string]string // repo -> tag -> asset -> body
	raw      map[string]string                       // repo/path -> body
	failures map[string]int                          // path -> remaining 500s
	hits     map[string]int                          // path -> requests
	gate     map[string]chan struct{}                // path -> blocks until closed
	entered  chan string
}

func newFakeHub(t *testing.T) *fakeHub {
	t.Helper()
	h := &fakeHub{
		latest:   map[string]string{},
		releases: map[string]map[string]map[string]string{},
		raw:      map[string]string{},
		failures: map[string]int{},
		hits:     map[string]int{},
		gate:     map[string]chan struct{}{},
		entered:  make(chan string, 16),
	}
	h.server = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.server.Close)
	return h
}

// publish adds a release of repo. The newest published tag is latest.
func (h *fakeHub) publish(repo, tag string, assets map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.releases[repo] == nil {
		h.releases[repo] = map[string]map[string]string{}
	}
	h.releases[repo][tag] = assets
	h.latest[repo] = tag
}

func (h *fakeHub) setRaw(repo, path, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raw[repo+"/"+path] = body
}

func (h *fakeHub) failNext(path string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[path] = n
}

func (h *fakeHub) block(path string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan struct{})
	h.gate[path] = ch
	return ch
}

func (h *fakeHub) hitCount(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func assetPath(repo, tag, name string) string {
	return fmt.Sprintf("/dl/%s/%s/%s", repo, tag, name)
}

func latestPath(repo string) string {
	return fmt.Sprintf("/api/repos/%s/releases/latest", repo)
}

func (h *fakeHub) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	h.mu.Lock()
	h.hits[path]++
	failing := h.failures[path] > 0
	if failing {
		h.failures[path]--
	}
	gate := h.gate[path]
	h.mu.Unlock()

	if gate != nil {
		h.entered <- path
		<-gate
	}
	if failing {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 6 && parts[0] == "api" && parts[5] == "latest":
		repo := parts[2] + "/" + parts[3]
		h.mu.Lock()
		tag, ok := h.latest[repo]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.writeRelease(w, r, repo, tag)
	case len(parts) == 7 && parts[0] == "api" && parts[5] == "tags":
		h.writeRelease(w, r, parts[2]+"/"+parts[3], parts[6])
	case len(parts) == 5 && parts[0] == "dl":
		h.mu.Lock()
		body, ok := h.releases[parts[1]+"/"+parts[2]][parts[3]][parts[4]]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	case len(parts) >= 5 && parts[0] == "raw":
		key := parts[1] + "/" + parts[2] + "/" + strings.Join(parts[4:], "/")
		h.mu.Lock()
		body, ok := h.raw[key]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (h *fakeHub) writeRelease(w http.ResponseWriter, r *http.Request, repo, tag string) {
	h.mu.Lock()
	assets, ok := h.releases[repo][tag]
	h.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	release := updater.Release{Tag: tag}
	for name, body := range assets {
		release.Assets = append(release.Assets, updater.Asset{
			Name:        name,
			DownloadURL: h.server.URL + assetPath(repo, tag, name),
			Size:        int64(len(body)),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(release)
}

func (h *fakeHub) client() *updater.Client {
	return updater.New(
		updater.WithHTTPClient(h.server.Client()),
		updater.WithAPIBase(h.server.URL+"/api"),
		updater.WithRawBase(h.server.URL+"/raw"),
		updater.WithRetry(3, time.Millisecond),
	)
}

func pluginAssets(id, version, bundle string) map[string]string {
	return map[string]string{
		"manifest.json": fmt.Sprintf(`{"id":%q,"name":%q,"version":%q}`, id, id, version),
		"main.js":       bundle,
	}
}

// fakeHost keeps installed packages in memory and counts every call.
type fakeHost struct {
	mu          sync.Mutex
	packages    map[string]map[string][]byte
	themes      map[string]map[string][]byte
	writes      int
	themeWrites int
	reloads     map[string]int
	enables     map[string]int
	writeErr    error
	// failReloads and failEnables make that many calls fail before the
	// host starts accepting them.
	failReloads int
	failEnables int
}

var _ host.Host = (*fakeHost)(nil)

func newFakeHost() *fakeHost {
	return &fakeHost{
		packages: map[string]map[string][]byte{},
		themes:   map[string]map[string][]byte{},
		reloads:  map[string]int{},
		enables:  map[string]int{},
	}
}

func (h *fakeHost) WriteExtensionFiles(ctx context.Context, id string, files map[string][]byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writeErr != nil {
		return h.writeErr
	}
	h.writes++
	h.packages[id] = files
	return nil
}

func (h *fakeHost) ReloadExtension(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failReloads > 0 {
		h.failReloads--
		return errors.New("host refused reload")
	}
	h.reloads[id]++
	return nil
}

func (h *fakeHost) EnableExtension(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failEnables > 0 {
		h.failEnables--
		return errors.New("host refused enable")
	}
	h.enables[id]++
	return nil
}

func (h *fakeHost) IsExtensionIdentifierKnown(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.packages[id]
	return ok
}

func (h *fakeHost) InstalledVersion(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	files, ok := h.packages[id]
	if !ok {
		return "", false
	}
	m, err := manifest.Parse(files["manifest.json"])
	if err != nil {
		return "", false
	}
	return m.Version, true
}

func (h *fakeHost) WriteTheme(ctx context.Context, name string, files map[string][]byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writeErr != nil {
		return h.writeErr
	}
	h.themeWrites++
	h.themes[name] = files
	return nil
}

func (h *fakeHost) file(id, name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return string(h.packages[id][name])
}

// countingStore counts persisted mutations.
type countingStore struct {
	*tracking.MemoryStore
	mu      sync.Mutex
	upserts int
}

func (s *countingStore) UpsertPackage(p tracking.TrackedPackage) error {
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.MemoryStore.UpsertPackage(p)
}

func (s *countingStore) UpsertTheme(t tracking.TrackedTheme) error {
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.MemoryStore.UpsertTheme(t)
}

func (s *countingStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

type fixture struct {
	hub   *fakeHub
	host  *fakeHost
	store *countingStore
	sw    *Sweeper
}

func newFixture(t *testing.T, pkgs []tracking.TrackedPackage, themes []tracking.TrackedTheme, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		hub:   newFakeHub(t),
		host:  newFakeHost(),
		store: &countingStore{MemoryStore: tracking.NewMemoryStore(pkgs, themes)},
	}
	f.sw = New(f.hub.client(), f.host, f.store, opts...)
	t.Cleanup(f.sw.Close)
	return f
}

func (f *fixture) trackedPackage(t *testing.T, repo string) tracking.TrackedPackage {
	t.Helper()
	pkgs, err := f.store.ListPackages()
	require.NoError(t, err)
	for _, p := range pkgs {
		if p.Repository == repo {
			return p
		}
	}
	t.Fatalf("package %s is not tracked", repo)
	return tracking.TrackedPackage{}
}
