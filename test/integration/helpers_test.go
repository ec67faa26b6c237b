//go:build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentx-labs/brat/internal/updater"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir  string // BRAT_HOME, holds tracking.yaml and the sweep report
	VaultDir string // the vault packages are installed into
}

// setupTestEnv creates isolated temp directories and sets environment
// variables so every operation is sandboxed.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:  t.TempDir(),
		VaultDir: t.TempDir(),
	}
	t.Setenv("BRAT_HOME", env.HomeDir)

	if err := os.MkdirAll(filepath.Join(env.VaultDir, ".obsidian"), 0755); err != nil {
		t.Fatalf("creating vault config dir: %v", err)
	}
	return env
}

// hub is a minimal stand-in for the GitHub releases API and raw content host.
type hub struct {
	server *httptest.Server

	mu       sync.Mutex
	latest   map[string]string
	releases map[string]map[string]map[string]string
	raw      map[string]string
	requests []string
}

func newHub(t *testing.T) *hub {
	t.Helper()
	h := &hub{
		latest:   map[string]string{},
		releases: map[string]map[string]map[string]string{},
		raw:      map[string]string{},
	}
	h.server = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.server.Close)
	return h
}

func (h *hub) publish(repo, tag string, assets map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.releases[repo] == nil {
		h.releases[repo] = map[string]map[string]string{}
	}
	h.releases[repo][tag] = assets
	h.latest[repo] = tag
}

func (h *hub) setRaw(repo, path, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raw[repo+"/"+path] = body
}

func (h *hub) requested(prefix string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.URL.Path)
	h.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
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
		h.release(w, r, repo, tag)
	case len(parts) == 7 && parts[0] == "api" && parts[5] == "tags":
		h.release(w, r, parts[2]+"/"+parts[3], parts[6])
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
		h.mu.Lock()
		body, ok := h.raw[parts[1]+"/"+parts[2]+"/"+strings.Join(parts[4:], "/")]
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

func (h *hub) release(w http.ResponseWriter, r *http.Request, repo, tag string) {
	h.mu.Lock()
	assets, ok := h.releases[repo][tag]
	h.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	rel := updater.Release{Tag: tag}
	for name, body := range assets {
		rel.Assets = append(rel.Assets, updater.Asset{
			Name:        name,
			DownloadURL: fmt.Sprintf("%s/dl/%s/%s/%s", h.server.URL, repo, tag, name),
			Size:        int64(len(body)),
		})
	}
	json.NewEncoder(w).Encode(rel)
}

func (h *hub) client() *updater.Client {
	return updater.New(
		updater.WithHTTPClient(h.server.Client()),
		updater.WithAPIBase(h.server.URL+"/api"),
		updater.WithRawBase(h.server.URL+"/raw"),
		updater.WithRetry(3, time.Millisecond),
	)
}

func plugin(id, version, bundle string) map[string]string {
	return map[string]string{
		"manifest.json": fmt.Sprintf(`{"id":%q,"name":%q,"version":%q,"minAppVersion":"1.0.0"}`, id, id, version),
		"main.js":       bundle,
	}
}

// assertFileExists fails the test if path does not exist as a regular file.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file %s to exist: %v", path, err)
	}
	if info.IsDir() {
		t.Fatalf("expected %s to be a file, got directory", path)
	}
}

// assertFileContent fails the test if path does not hold want.
func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(data) != want {
		t.Errorf("%s = %q, want %q", path, string(data), want)
	}
}
