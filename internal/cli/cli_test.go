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
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commitcraft/internal/apperr"
)

// resetFlags resets all package-level flag variables and their changed
// state between executions of the shared command tree.
func resetFlags() {
	flagConfig = ""
	flagProvider = ""
	flagVerbose = false
	flagNoColor = false
	flagYes = false
	flagNoEdit = false
	flagDryRun = false
	flagNoStream = false
	flagFormat = "text"
	flagOut = ""
	flagMinSeverity = ""
	flagNoCache = false
	flagNoRedact = false
	flagForce = false

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		unchanged := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(unchanged)
		c.PersistentFlags().VisitAll(unchanged)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	code := execute(context.Background(), args)
	return code, out.String(), errOut.String()
}

// isolate points user config and cache dirs at temp dirs.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ollamaConfig points the default provider at a fake Ollama server.
func ollamaConfig(t *testing.T, endpoint string) string {
	return writeConfig(t, fmt.Sprintf(`llm:
  default_provider: local
  providers:
    local:
      api_style: ollama
      endpoint: %s
      model: test-model
commit:
  streaming: false
  show_diff_preview: true
cache:
  enabled: false
ui:
  colored: false
`, endpoint))
}

func ollamaServer(t *testing.T, response string) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		body, _ := json.Marshal(map[string]any{"response": response, "done": true})
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func setupRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@test.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@test.com")

	git(t, dir, "init")
	git(t, dir, "checkout", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	git(t, dir, "add", "-A")
	git(t, dir, "commit", "-m", "init")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

func TestVersionCmd(t *testing.T) {
	code, out, _ := runCLI(t, "", "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "commitcraft version "+Version+"\n", out)
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"bogus"},
		{"review", "commit"},
		{"review", "range", "a..b", "extra"},
		{"commit", "--nope"},
	} {
		code, _, stderr := runCLI(t, "", args...)
		assert.Equal(t, ExitUsageError, code, "args %v", args)
		assert.Contains(t, stderr, "Error:")
	}
}

func TestReviewCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, c := range reviewCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"changes", "commit", "range", "file"}, names)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		contains []string
	}{
		{"cancelled", apperr.ErrCancelled, ExitSuccess, []string{"Cancelled."}},
		{"config", apperr.Config("Set ANTHROPIC_API_KEY", "no API key"), ExitConfigError, []string{"Error: no API key", "Tip: Set ANTHROPIC_API_KEY"}},
		{"vcs", apperr.ErrNoStagedChanges, ExitRuntimeError, []string{"no staged changes", "Tip: Use 'git add'"}},
		{"plain", errors.New("boom"), ExitRuntimeError, []string{"Error: boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetErr(&buf)
			assert.Equal(t, tt.code, fail(cmd, tt.err))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			if tt.code == ExitSuccess {
				assert.NotContains(t, buf.String(), "Error")
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	code, out, _ := runCLI(t, "", "--config", path, "config", "init")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	code, _, stderr := runCLI(t, "", "--config", path, "config", "init")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "already exists")
	assert.Contains(t, stderr, "--force")

	code, _, _ = runCLI(t, "", "--config", path, "config", "init", "--force")
	assert.Equal(t, ExitSuccess, code)

	code, out, _ = runCLI(t, "", "--config", path, "config", "validate")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "valid")
}

func TestConfigValidate_Invalid(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "commit:\n  max_retries: 0\nreview:\n  min_severity: loud\n")
	code, _, stderr := runCLI(t, "", "--config", path, "config", "validate")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "commit.max_retries")
	assert.Contains(t, stderr, "review.min_severity")
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)
	code, _, stderr := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "config", "show")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "Tip:")
}

func TestConfigShow_MasksKeys(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "llm:\n  providers:\n    claude:\n      api_key: sk-ant-secret\n      model: m\n")
	code, out, _ := runCLI(t, "", "--config", path, "config", "show")
	require.Equal(t, ExitSuccess, code)
	assert.NotContains(t, out, "sk-ant-secret")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "max_retries: 10")
}

func TestConfigShow_ProviderFlag(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, "", "--provider", "ollama", "config", "show")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "default_provider: ollama")
}

func TestProvidersList(t *testing.T) {
	isolate(t)
	path := ollamaConfig(t, "http://127.0.0.1:1")
	code, out, _ := runCLI(t, "", "--config", path, "providers", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "local *")
	assert.Contains(t, out, "test-model")
	assert.Contains(t, out, "claude")
}

func TestProvidersCheck_MissingKey(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("CLAUDE_API_KEY", "")
	code, _, stderr := runCLI(t, "", "--provider", "claude", "providers", "check")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "ANTHROPIC_API_KEY")
}

func TestCacheCommands(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf("cache:\n  enabled: true\n  dir: %s\n", dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"key":"k","value":"v"}`), 0o644))

	code, out, _ := runCLI(t, "", "--config", path, "cache", "show")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, `"entries": 1`)

	code, out, _ = runCLI(t, "", "--config", path, "cache", "clear")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "1 entries removed")

	disabled := writeConfig(t, "cache:\n  enabled: false\n")
	code, out, _ = runCLI(t, "", "--config", disabled, "cache", "show")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "disabled")
}

func TestCommit_AutoAccept(t *testing.T) {
	isolate(t)
	dir := setupRepo(t)
	srv, calls := ollamaServer(t, "feat: add helper\n\nAdds a helper.")
	path := ollamaConfig(t, srv.URL)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.go"), []byte("package main\n\nfunc helper() {}\n"), 0o644))
	git(t, dir, "add", "helper.go")

	code, out, stderr := runCLI(t, "", "--config", path, "commit", "--yes")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 1, *calls)
	assert.Contains(t, out, "Branch:  main")
	assert.Contains(t, out, "Committed: feat: add helper")
	assert.Equal(t, "feat: add helper\n\nAdds a helper.", strings.TrimSpace(git(t, dir, "log", "-1", "--format=%B")))
}

func TestCommit_InteractiveRetryThenAccept(t *testing.T) {
	isolate(t)
	dir := setupRepo(t)
	srv, calls := ollamaServer(t, "fix: handle nil")
	path := ollamaConfig(t, srv.URL)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nvar x int\n"), 0o644))
	git(t, dir, "add", "main.go")

	code, out, stderr := runCLI(t, "r\na\n", "--config", path, "commit")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 2, *calls)
	assert.Contains(t, out, "Attempt 2")
	assert.Equal(t, "fix: handle nil", strings.TrimSpace(git(t, dir, "log", "-1", "--format=%B")))
}

func TestCommit_QuitIsClean(t *testing.T) {
	isolate(t)
	dir := setupRepo(t)
	srv, _ := ollamaServer(t, "chore: tidy")
	path := ollamaConfig(t, srv.URL)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main // tidy\n"), 0o644))
	git(t, dir, "add", "main.go")

	code, _, stderr := runCLI(t, "q\n", "--config", path, "commit")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "Cancelled.")
	assert.Equal(t, "init", strings.TrimSpace(git(t, dir, "log", "-1", "--format=%s")))
}

func TestCommit_DryRun(t *testing.T) {
	isolate(t)
	dir := setupRepo(t)
	srv, calls := ollamaServer(t, "docs: explain")
	path := ollamaConfig(t, srv.URL)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x\n"), 0o644))
	git(t, dir, "add", "README.md")

	code, out, stderr := runCLI(t, "", "--config", path, "commit", "--dry-run")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 1, *calls)
	assert.Contains(t, out, "docs: explain")
	assert.Contains(t, out, "Dry run")
	assert.Equal(t, "init", strings.TrimSpace(git(t, dir, "log", "-1", "--format=%s")))
}

func TestCommit_NothingStaged(t *testing.T) {
	isolate(t)
	setupRepo(t)
	srv, calls := ollamaServer(t, "unused")
	path := ollamaConfig(t, srv.URL)

	code, _, stderr := runCLI(t, "", "--config", path, "commit", "--yes")
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, stderr, "no staged changes")
	assert.Contains(t, stderr, "Tip: Use 'git add'")
	assert.Zero(t, *calls)
}

func TestReviewFile_JSON(t *testing.T) {
	isolate(t)
	setupRepo(t)
	srv, calls := ollamaServer(t, "```json\n"+`{"summary":"Small file.","issues":[`+
		`{"severity":"warning","description":"No tests","file":"main.go","line":1},`+
		`{"severity":"info","description":"Add a doc comment"}],"suggestions":["Add tests"]}`+"\n```")
	path := ollamaConfig(t, srv.URL)

	code, out, stderr := runCLI(t, "", "--config", path, "review", "file", "main.go", "--format", "json", "--min-severity", "warning")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 1, *calls)

	var report struct {
		Target string `json:"target"`
		Result struct {
			Summary string `json:"summary"`
			Issues  []struct {
				Severity string `json:"severity"`
			} `json:"issues"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "file main.go", report.Target)
	assert.Equal(t, "Small file.", report.Result.Summary)
	require.Len(t, report.Result.Issues, 1)
	assert.Equal(t, "warning", report.Result.Issues[0].Severity)
}

func TestReviewChanges_Empty(t *testing.T) {
	isolate(t)
	setupRepo(t)
	srv, calls := ollamaServer(t, "unused")
	path := ollamaConfig(t, srv.URL)

	code, out, stderr := runCLI(t, "", "--config", path, "review", "changes")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Zero(t, *calls)
	assert.Contains(t, out, "No issues found")
}

func TestReview_BadFormat(t *testing.T) {
	isolate(t)
	code, _, stderr := runCLI(t, "", "review", "changes", "--format", "sarif")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "unsupported output format")
}

func TestReview_UnparseableResponse(t *testing.T) {
	isolate(t)
	setupRepo(t)
	srv, _ := ollamaServer(t, "I think the code is fine.")
	path := ollamaConfig(t, srv.URL)

	code, _, stderr := runCLI(t, "", "--config", path, "review", "file", "main.go")
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, stderr, "Error:")
}

// scriptEditor replaces the editor with writes of each content in turn and
// reports how many times it ran.
func scriptEditor(t *testing.T, contents ...string) *int {
	t.Helper()
	runs := new(int)
	prev := openEditor
	openEditor = func(_ context.Context, path string) error {
		require.Less(t, *runs, len(contents), "editor opened too often")
		content := contents[*runs]
		*runs++
		return os.WriteFile(path, []byte(content), 0o600)
	}
	t.Cleanup(func() { openEditor = prev })
	return runs
}

func TestConfigEdit_Valid(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "commit:\n  max_retries: 3\n")
	runs := scriptEditor(t, "commit:\n  max_retries: 5\n")

	code, out, stderr := runCLI(t, "", "--config", path, "config", "edit")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 1, *runs)
	assert.Contains(t, out, "Config file updated")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_retries: 5")
}

func TestConfigEdit_IsDefaultAction(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "ui:\n  colored: false\n")
	runs := scriptEditor(t, "ui:\n  colored: true\n")

	code, _, stderr := runCLI(t, "", "--config", path, "config")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 1, *runs)
}

func TestConfigEdit_InvalidThenReedit(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "commit:\n  max_retries: 3\n")
	runs := scriptEditor(t, "commit:\n  max_retries: 0\n", "commit:\n  max_retries: 4\n")

	code, out, stderr := runCLI(t, "y\n", "--config", path, "config", "edit")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, 2, *runs)
	assert.Contains(t, out, "Config validation failed")
	assert.Contains(t, out, "commit.max_retries")
	assert.Contains(t, out, "Config file updated")
}

func TestConfigEdit_InvalidThenRestore(t *testing.T) {
	isolate(t)
	original := "commit:\n  max_retries: 3\n"
	path := writeConfig(t, original)
	runs := scriptEditor(t, "commit: [unclosed\n")

	code, out, _ := runCLI(t, "n\n", "--config", path, "config", "edit")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, 1, *runs)
	assert.Contains(t, out, "Config restored to previous version")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestConfigEdit_EditorFailsRestores(t *testing.T) {
	isolate(t)
	original := "commit:\n  max_retries: 3\n"
	path := writeConfig(t, original)
	prev := openEditor
	openEditor = func(_ context.Context, path string) error {
		os.WriteFile(path, []byte("half written"), 0o600)
		return errors.New("editor exited with status 1")
	}
	t.Cleanup(func() { openEditor = prev })

	code, _, stderr := runCLI(t, "", "--config", path, "config", "edit")
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, stderr, "editor exited")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestConfigEdit_MissingFile(t *testing.T) {
	isolate(t)
	scriptEditor(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	code, _, stderr := runCLI(t, "", "--config", path, "config", "edit")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "config file not found")
	assert.Contains(t, stderr, "Tip: Run 'commitcraft config init'")
}
