package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membank-rc/membank/internal/bank"
	"github.com/membank-rc/membank/internal/config"
	"github.com/membank-rc/membank/internal/retry"
)

type upstreamFiles map[string]string

// serveUpstream fakes the raw content host and the contents API for the
// repository owner/repo on branch main.
func serveUpstream(t *testing.T, files upstreamFiles) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dir, ok := strings.CutPrefix(r.URL.Path, "/repos/owner/repo/contents"); ok {
			dir = strings.Trim(dir, "/")
			var entries []map[string]string
			for p := range files {
				sub, name, nested := strings.Cut(p, "/")
				if (dir == "" && !nested) || (nested && sub == dir) {
					if dir == "" {
						name = p
					}
					entries = append(entries, map[string]string{"name": name, "path": p, "type": "file"})
				}
			}
			if len(entries) == 0 {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(entries)
			return
		}

		rel, ok := strings.CutPrefix(r.URL.Path, "/owner/repo/main/")
		body, found := files[rel]
		if !ok || !found {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rules() upstreamFiles {
	return upstreamFiles{
		".clinerules-architect": "architect v1",
		".clinerules-ask":       "ask v1",
		".clinerules-code":      "code v1",
	}
}

// setupEnv points settings at srvURL and keeps the user config inside the
// test.
func setupEnv(t *testing.T, srvURL string) {
	t.Helper()
	t.Setenv("MEMBANK_HOME", t.TempDir())
	t.Setenv("MEMBANK_REPO", "owner/repo")
	t.Setenv("MEMBANK_BRANCH", "main")
	t.Setenv("MEMBANK_RAW_BASE_URL", srvURL)
	t.Setenv("MEMBANK_API_BASE_URL", srvURL)
	t.Setenv("MEMBANK_MAX_RETRIES", "0")
	t.Setenv("MEMBANK_LOG_LEVEL", "")
	t.Setenv("MEMBANK_LOG_JSON", "")
	t.Setenv("GITHUB_TOKEN", "")
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// run executes the command tree with args, feeding stdin to prompts.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInstallExtension_FreshProject(t *testing.T) {
	srv := serveUpstream(t, rules())
	setupEnv(t, srv.URL)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# App\n\n## What it does\nTracks things. Well.\n"), 0o644))

	out, _, err := run(t, "", "install-extension", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "successfully created")

	for rel, body := range rules() {
		assert.Equal(t, body, readFile(t, filepath.Join(dir, rel)))
	}
	ctxFile := readFile(t, filepath.Join(dir, bank.ProductContextPath))
	assert.Contains(t, ctxFile, "Tracks things.")
	assert.Contains(t, ctxFile, "Version: 0.0.1")
	assert.Contains(t, readFile(t, filepath.Join(dir, ".gitignore")), "memory-bank/\n")
}

func TestInstallExtension_AlreadyInstalled(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".clinerules-code"), []byte("mine"), 0o644))

	out, _, err := run(t, "", "install", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Aborting installation.")
	assert.Equal(t, "mine", readFile(t, filepath.Join(dir, ".clinerules-code")))
}

func TestInstallExtension_Declined(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")
	dir := t.TempDir()

	out, _, err := run(t, "n\n", "install-extension", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Installation aborted.")
	assert.NoDirExists(t, filepath.Join(dir, bank.Dir))
}

func TestInstallExtension_UnreachableExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)

	_, _, err := run(t, "", "install-extension", "--yes", "-C", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitRetriesExhausted, ExitCode(err))
}

func TestUpdate_NotInstalled(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")

	out, _, err := run(t, "", "update", "-C", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "not installed")
	assert.Contains(t, out, "install-extension")
}

func TestUpdate_AppliesChangesAndBumpsVersion(t *testing.T) {
	files := rules()
	files[".clinerules-debug"] = "debug v1"
	srv := serveUpstream(t, files)
	setupEnv(t, srv.URL)

	dir := t.TempDir()
	for rel, body := range rules() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(body), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".clinerules-code"), []byte("code v0"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, bank.Dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, bank.ProductContextPath),
		[]byte("# Product Context\n\nApp.\n\n## Version\nVersion: 1.2.3\nLast Updated: 2025-01-01\n"), 0o644))

	out, _, err := run(t, "", "update", "--yes", "-C", dir)
	require.NoError(t, err)

	assert.Equal(t, "code v1", readFile(t, filepath.Join(dir, ".clinerules-code")))
	assert.Equal(t, "debug v1", readFile(t, filepath.Join(dir, ".clinerules-debug")))
	assert.Contains(t, readFile(t, filepath.Join(dir, bank.ProductContextPath)), "Version: 1.2.4")
	assert.Contains(t, out, "1.2.3 -> 1.2.4")
}

func TestUpdate_CheckWritesNothing(t *testing.T) {
	srv := serveUpstream(t, rules())
	setupEnv(t, srv.URL)

	dir := t.TempDir()
	for rel := range rules() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte("local"), 0o644))
	}

	out, _, err := run(t, "", "update", "--check", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Pending changes:")
	assert.Contains(t, out, ".clinerules-ask")
	assert.Equal(t, "local", readFile(t, filepath.Join(dir, ".clinerules-ask")))
	assert.NoFileExists(t, filepath.Join(dir, bank.ProductContextPath))
}

func TestUpdate_CheckReportsListingFailure(t *testing.T) {
	raw := serveUpstream(t, rules())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/repos/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		raw.Config.Handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	setupEnv(t, srv.URL)

	dir := t.TempDir()
	for rel, body := range rules() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(body), 0o644))
	}

	out, _, err := run(t, "", "update", "--check", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Listing failed")
	assert.NotContains(t, out, "Everything is up to date")
}

func TestStatus(t *testing.T) {
	srv := serveUpstream(t, rules())
	setupEnv(t, srv.URL)
	dir := t.TempDir()

	_, _, err := run(t, "", "install-extension", "--yes", "-C", dir)
	require.NoError(t, err)

	out, _, err := run(t, "", "status", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ .clinerules-architect")
	assert.Contains(t, out, "✓ 0.0.1")
	assert.Contains(t, out, "is reachable")

	require.NoError(t, os.Remove(filepath.Join(dir, ".clinerules-ask")))
	out, _, err = run(t, "", "doctor", "--offline", "-C", dir)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, out, "✗ .clinerules-ask")
	assert.NotContains(t, out, "reachable")
}

func TestConfigSetGet(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")
	t.Setenv("MEMBANK_MAX_RETRIES", "")

	out, _, err := run(t, "", "config", "set", "max_retries", "5")
	require.NoError(t, err)
	assert.Equal(t, "Set max_retries = 5\n", out)
	assert.FileExists(t, config.FilePath())

	out, _, err = run(t, "", "config", "get", "max_retries")
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)

	out, _, err = run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, config.FilePath()+"\n", out)
}

func TestConfigSet_InvalidValue(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")

	_, _, err := run(t, "", "config", "set", "timeout", "0")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))

	_, _, err = run(t, "", "config", "get", "nope")
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
}

func TestVersion(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.4.0", "abc123", "2026-10-01"

	out, _, err := run(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.4.0\n", out)

	out, _, err = run(t, "", "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "abc123", info["commit"])

	out, _, err = run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "membank version 1.4.0 (commit: abc123, built: 2026-10-01)\n", out)
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, _, err := run(t, "", "update", "--bogus")
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")

	_, _, err := run(t, "", "version", "--log-level", "loud")
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"exhausted", fmt.Errorf("downloading: %w", &retry.ExhaustedError{Attempts: 4, Err: errors.New("503")}), ExitRetriesExhausted},
		{"usage", usageError{err: errors.New("bad flag")}, ExitInvalidArguments},
		{"config", fmt.Errorf("loading: %w", &config.ValidationError{Key: "timeout", Message: "must be at least 1"}), ExitInvalidArguments},
		{"silent", silentError{code: ExitFailure}, ExitFailure},
		{"interrupted", fmt.Errorf("update interrupted while writing: %w", context.Canceled), ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "warn", true)
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "file", ".clinerules-ask")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"file":".clinerules-ask"`)

	_, err = newLogger(&buf, "verbose", false)
	assert.Error(t, err)
}
