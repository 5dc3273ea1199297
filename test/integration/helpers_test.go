//go:build integration

package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/membank-rc/membank/internal/config"
	"github.com/membank-rc/membank/internal/remote"
)

// testEnv holds the isolated directories and fake upstream of one test.
type testEnv struct {
	HomeDir    string // MEMBANK_HOME, holds config.yaml
	ProjectDir string // the project the memory bank is installed into
	Upstream   *upstream
}

// setupTestEnv sandboxes the user config and starts a fake upstream that
// serves the three required mode files.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
		Upstream: newUpstream(t, map[string]string{
			".clinerules-architect": "architect rules v1\n",
			".clinerules-ask":       "ask rules v1\n",
			".clinerules-code":      "code rules v1\n",
		}),
	}
	t.Setenv("MEMBANK_HOME", env.HomeDir)
	t.Setenv("GITHUB_TOKEN", "")
	return env
}

// client returns a remote client pointed at the fake upstream with instant
// retries.
func (e *testEnv) client(t *testing.T) *remote.Client {
	t.Helper()
	settings, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	settings.Repo = "owner/repo"
	settings.Branch = "main"
	settings.RawBaseURL = e.Upstream.URL
	settings.APIBaseURL = e.Upstream.URL
	return remote.New(*settings, remote.WithSleep(noSleep))
}

// upstream fakes raw.githubusercontent.com and the contents API for
// owner/repo@main. Files can be changed while the server runs.
type upstream struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string]string
}

func newUpstream(t *testing.T, files map[string]string) *upstream {
	t.Helper()
	u := &upstream{files: files}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) set(rel, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files[rel] = body
}

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if dir, ok := strings.CutPrefix(r.URL.Path, "/repos/owner/repo/contents"); ok {
		dir = strings.Trim(dir, "/")
		entries := []map[string]string{}
		for p := range u.files {
			parent, name := filepath.Split(p)
			if strings.TrimSuffix(parent, "/") == dir {
				entries = append(entries, map[string]string{"name": name, "path": p, "type": "file"})
			}
		}
		if dir != "" && len(entries) == 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
		return
	}

	rel, ok := strings.CutPrefix(r.URL.Path, "/owner/repo/main/")
	body, found := u.files[rel]
	if !ok || !found {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

// writeFile creates a file and any necessary parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readFile returns the contents of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
