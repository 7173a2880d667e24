package gitctx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dshills/commitcraft/internal/apperr"
)

// maxFileBytes caps FileContent reads.
var maxFileBytes int64 = 10 << 20

// Repo runs git in one working tree.
type Repo struct {
	root string
}

// Open locates the repository containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	r := &Repo{root: dir}
	root, err := r.output(ctx, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, apperr.WithHint(
			apperr.Wrap(apperr.KindVCS, err, "not a git repository"),
			"Run commitcraft inside a git working tree",
		)
	}
	r.root = strings.TrimSpace(root)
	return r, nil
}

// Root is the top-level directory of the working tree.
func (r *Repo) Root() string { return r.root }

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	out, err := r.output(ctx, nil, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// StagedDiff returns the diff of index vs HEAD.
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	return r.output(ctx, nil, "diff", "--cached", "--no-color", "--no-ext-diff")
}

// UncommittedDiff returns staged and unstaged changes against HEAD. In a
// repository without commits it falls back to index plus working tree.
func (r *Repo) UncommittedDiff(ctx context.Context) (string, error) {
	if _, err := r.output(ctx, nil, "rev-parse", "--verify", "--quiet", "HEAD"); err == nil {
		return r.output(ctx, nil, "diff", "HEAD", "--no-color", "--no-ext-diff")
	}
	staged, err := r.StagedDiff(ctx)
	if err != nil {
		return "", err
	}
	unstaged, err := r.output(ctx, nil, "diff", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", err
	}
	return staged + unstaged, nil
}

// CommitDiff returns the patch introduced by one commit, including root
// commits.
func (r *Repo) CommitDiff(ctx context.Context, hash string) (string, error) {
	if err := checkRev(hash); err != nil {
		return "", err
	}
	return r.output(ctx, nil, "show", "--format=", "--patch", "--no-color", "--no-ext-diff", hash, "--")
}

// RangeDiff returns the combined diff of a revision range written "a..b".
func (r *Repo) RangeDiff(ctx context.Context, rng string) (string, error) {
	from, to, ok := strings.Cut(rng, "..")
	if !ok || strings.TrimPrefix(to, ".") == "" || from == "" {
		return "", apperr.WithHint(
			apperr.New(apperr.KindVCS, "invalid range %q", rng),
			"Use the form <from>..<to>, for example main..HEAD",
		)
	}
	if err := checkRev(rng); err != nil {
		return "", err
	}
	return r.output(ctx, nil, "diff", "--no-color", "--no-ext-diff", rng, "--")
}

// FileContent reads a file for review, refusing anything over the size cap.
func (r *Repo) FileContent(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindVCS, err, "cannot read %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", apperr.Wrap(apperr.KindVCS, err, "cannot read %s", path)
	}
	if info.IsDir() {
		return "", apperr.New(apperr.KindVCS, "%s is a directory", path)
	}
	if info.Size() > maxFileBytes {
		return "", apperr.WithHint(
			apperr.New(apperr.KindVCS, "%s is too large to review (%d bytes, limit %d)", path, info.Size(), maxFileBytes),
			"Review a smaller file or the relevant commit instead",
		)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return "", apperr.Wrap(apperr.KindVCS, err, "cannot read %s", path)
	}
	return string(data), nil
}

// FileAsDiff presents whole-file content as a new-file diff so it can be
// reviewed like any other change.
func FileAsDiff(path, content string) string {
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(&b, "new file mode 100644\n")
	fmt.Fprintf(&b, "--- /dev/null\n")
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		fmt.Fprintf(&b, "+%s\n", line)
	}
	return b.String()
}

// Commit records the index with message exactly as given.
func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := r.output(ctx, strings.NewReader(message), "commit", "--cleanup=verbatim", "-F", "-")
	return err
}

// CurrentBranch returns the checked-out branch name, or "" when HEAD is
// detached.
func (r *Repo) CurrentBranch() (string, error) {
	repo, err := git.PlainOpenWithOptions(r.root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", apperr.Wrap(apperr.KindVCS, err, "opening repository")
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Unborn branch: HEAD is symbolic but has no commit yet.
		ref, rerr := repo.Reference(plumbing.HEAD, false)
		if rerr != nil {
			return "", apperr.Wrap(apperr.KindVCS, rerr, "reading HEAD")
		}
		if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
			return ref.Target().Short(), nil
		}
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindVCS, err, "reading HEAD")
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

func checkRev(rev string) error {
	if rev == "" || strings.HasPrefix(rev, "-") {
		return apperr.New(apperr.KindVCS, "invalid revision %q", rev)
	}
	return nil
}

func (r *Repo) output(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", apperr.Wrap(apperr.KindCancelled, ctx.Err(), "git %s", args[0])
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return string(out), apperr.Wrap(apperr.KindVCS, errors.New(msg), "git %s", args[0])
	}
	return string(out), nil
}
