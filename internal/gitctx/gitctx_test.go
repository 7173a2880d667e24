package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/diffstat"
)

// setupTestRepo creates a temp git repo on branch main with one commit and
// returns its path.
func setupTestRepo(t *testing.T) string {
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

	run(t, dir, "init")
	run(t, dir, "checkout", "-b", "main")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	run(t, dir, "add", "-A")
	run(t, dir, "commit", "-m", "init")
	return dir
}

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func openRepo(t *testing.T, dir string) *Repo {
	t.Helper()
	r, err := Open(context.Background(), dir)
	require.NoError(t, err)
	return r
}

func TestOpen_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())
	dir := t.TempDir()

	_, err := Open(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindVCS))
	assert.NotEmpty(t, apperr.Hints(err))
}

func TestStagedChanges(t *testing.T) {
	dir := setupTestRepo(t)
	r := openRepo(t, dir)
	ctx := context.Background()

	has, err := r.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	writeFile(t, dir, "util.go", "package main\n\nfunc helper() {}\n")
	has, err = r.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, has, "untracked files are not staged")

	run(t, dir, "add", "util.go")
	has, err = r.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	diff, err := r.StagedDiff(ctx)
	require.NoError(t, err)
	stats, err := diffstat.Extract(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{"util.go"}, stats.Files)
	assert.Equal(t, 3, stats.Insertions)
}

func TestUncommittedDiff(t *testing.T) {
	dir := setupTestRepo(t)
	r := openRepo(t, dir)

	writeFile(t, dir, "main.go", "package main\n\nfunc main() { println() }\n")
	writeFile(t, dir, "b.go", "package main\n")
	run(t, dir, "add", "b.go")

	diff, err := r.UncommittedDiff(context.Background())
	require.NoError(t, err)
	assert.Contains(t, diff, "b/main.go")
	assert.Contains(t, diff, "b/b.go")
}

func TestUncommittedDiff_NoCommits(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	dir := t.TempDir()
	run(t, dir, "init")
	writeFile(t, dir, "a.go", "package a\n")
	run(t, dir, "add", "a.go")

	diff, err := openRepo(t, dir).UncommittedDiff(context.Background())
	require.NoError(t, err)
	assert.Contains(t, diff, "+package a")
}

func TestCommitAndCommitDiff(t *testing.T) {
	dir := setupTestRepo(t)
	r := openRepo(t, dir)
	ctx := context.Background()

	writeFile(t, dir, "util.go", "package main\n")
	run(t, dir, "add", "util.go")

	msg := "feat: add util\n\n# kept verbatim\n  indented body  \n"
	require.NoError(t, r.Commit(ctx, msg))

	got := run(t, dir, "log", "-1", "--format=%B")
	assert.True(t, strings.HasPrefix(got, msg), "got %q", got)

	head := strings.TrimSpace(run(t, dir, "rev-parse", "HEAD"))
	diff, err := r.CommitDiff(ctx, head)
	require.NoError(t, err)
	assert.Contains(t, diff, "+++ b/util.go")
	assert.NotContains(t, diff, "main.go")

	root := strings.TrimSpace(run(t, dir, "rev-list", "--max-parents=0", "HEAD"))
	diff, err = r.CommitDiff(ctx, root)
	require.NoError(t, err)
	assert.Contains(t, diff, "+++ b/main.go")
}

func TestCommit_NothingStaged(t *testing.T) {
	dir := setupTestRepo(t)
	err := openRepo(t, dir).Commit(context.Background(), "chore: nothing")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindVCS))
}

func TestCommitDiff_RejectsOptions(t *testing.T) {
	r := &Repo{root: t.TempDir()}
	_, err := r.CommitDiff(context.Background(), "--output=/tmp/x")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindVCS))
}

func TestRangeDiff(t *testing.T) {
	dir := setupTestRepo(t)
	r := openRepo(t, dir)
	ctx := context.Background()

	writeFile(t, dir, "util.go", "package main\n")
	run(t, dir, "add", "util.go")
	run(t, dir, "commit", "-m", "second")

	diff, err := r.RangeDiff(ctx, "HEAD~1..HEAD")
	require.NoError(t, err)
	assert.Contains(t, diff, "+++ b/util.go")

	for _, bad := range []string{"HEAD", "..HEAD", "HEAD..", "-x..HEAD"} {
		_, err := r.RangeDiff(ctx, bad)
		require.Error(t, err, bad)
		assert.True(t, apperr.Is(err, apperr.KindVCS), bad)
	}
}

func TestFileContent(t *testing.T) {
	dir := t.TempDir()
	r := &Repo{root: dir}
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	got, err := r.FileContent(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", got)

	_, err = r.FileContent(filepath.Join(dir, "missing"))
	assert.True(t, apperr.Is(err, apperr.KindVCS))

	_, err = r.FileContent(dir)
	assert.True(t, apperr.Is(err, apperr.KindVCS))
}

func TestFileContent_TooLarge(t *testing.T) {
	orig := maxFileBytes
	maxFileBytes = 8
	t.Cleanup(func() { maxFileBytes = orig })

	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("123456789"), 0o644))

	_, err := (&Repo{root: dir}).FileContent(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
	assert.NotEmpty(t, apperr.Hints(err))
}

func TestFileAsDiff(t *testing.T) {
	diff := FileAsDiff("pkg/a.go", "package a\n\nvar x = 1\n")
	assert.Equal(t, "diff --git a/pkg/a.go b/pkg/a.go\nnew file mode 100644\n--- /dev/null\n+++ b/pkg/a.go\n@@ -0,0 +1,3 @@\n+package a\n+\n+var x = 1\n", diff)

	stats, err := diffstat.Extract(diff)
	require.NoError(t, err)
	assert.Equal(t, diffstat.Stats{Files: []string{"pkg/a.go"}, Insertions: 3}, stats)
}

func TestCurrentBranch(t *testing.T) {
	dir := setupTestRepo(t)
	r := openRepo(t, dir)

	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	run(t, dir, "checkout", "-b", "feature/login")
	branch, err = r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature/login", branch)

	run(t, dir, "checkout", "--detach", "HEAD")
	branch, err = r.CurrentBranch()
	require.NoError(t, err)
	assert.Empty(t, branch)
}

func TestCurrentBranch_Unborn(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	dir := t.TempDir()
	run(t, dir, "init")
	run(t, dir, "checkout", "-b", "trunk")

	branch, err := openRepo(t, dir).CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "trunk", branch)
}
