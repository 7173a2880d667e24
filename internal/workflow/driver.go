package workflow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/diffstat"
	"github.com/dshills/commitcraft/internal/prompt"
	"github.com/dshills/commitcraft/internal/providers"
	"github.com/dshills/commitcraft/internal/redact"
)

// DefaultMaxRetries applies when Options.MaxRetries is not positive.
const DefaultMaxRetries = 10

// VCS is the source-control side of a commit run.
type VCS interface {
	HasStagedChanges(ctx context.Context) (bool, error)
	StagedDiff(ctx context.Context) (string, error)
	// CurrentBranch returns "" when HEAD is detached.
	CurrentBranch() (string, error)
	Commit(ctx context.Context, message string) error
}

// Generator produces commit messages.
type Generator interface {
	GenerateCommitMessage(ctx context.Context, diff string, cc *prompt.CommitContext) (string, error)
	StreamCommitMessage(ctx context.Context, diff string, cc *prompt.CommitContext) (*providers.Stream, error)
	SupportsStreaming() bool
	Name() string
}

// UI is the interactive surface. Menu and Edit fail with a cancelled error
// (see apperr.IsCancelled) when the user backs out.
type UI interface {
	Preview(stats diffstat.Stats, branch string)
	Progress(label string) (stop func())
	Chunk(text string)
	ChunksDone()
	ShowMessage(message string)
	Menu(ctx context.Context, message string, allowEdit bool, attempt int) (ActionKind, error)
	Edit(ctx context.Context, initial string) (string, error)
	FreeText(ctx context.Context, hint string) string
	Warn(msg string)
	Success(msg string)
}

// Options gate driver behavior.
type Options struct {
	MaxRetries    int
	Streaming     bool
	AutoAccept    bool
	AllowEdit     bool
	DryRun        bool
	ShowPreview   bool
	CustomPrompt  string
	RedactSecrets bool
	RedactPaths   []string
}

// Result describes a finished run.
type Result struct {
	Message   string
	Committed bool
	// Attempts counts generations performed.
	Attempts int
}

// Driver runs one commit workflow.
type Driver struct {
	VCS  VCS
	Gen  Generator
	UI   UI
	Opts Options
	Log  *zap.Logger
}

// Run drives the workflow to a terminal state. A user abort returns
// apperr.ErrCancelled; callers should treat it as a clean exit.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	maxRetries := d.Opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	has, err := d.VCS.HasStagedChanges(ctx)
	if err != nil {
		return Result{}, err
	}
	if !has {
		return Result{}, apperr.ErrNoStagedChanges
	}

	diff, err := d.VCS.StagedDiff(ctx)
	if err != nil {
		return Result{}, err
	}
	stats, err := diffstat.Extract(diff)
	if err != nil {
		log.Warn("could not read diff statistics", zap.Error(err))
		d.UI.Warn("Could not compute diff statistics; continuing without them")
		stats = diffstat.Stats{}
	}

	branch, err := d.VCS.CurrentBranch()
	if err != nil {
		log.Debug("branch lookup failed", zap.Error(err))
		branch = ""
	}

	payload := diff
	if d.Opts.RedactSecrets {
		payload = redact.Diff(diff, d.Opts.RedactPaths)
	}

	if d.Opts.ShowPreview {
		d.UI.Preview(stats, branch)
	}

	var res Result
	st := Initial()
	for {
		if ctx.Err() != nil {
			return res, apperr.ErrCancelled
		}
		log.Debug("workflow step", zap.Stringer("phase", st.Phase), zap.Int("attempt", st.Attempt))

		switch st.Phase {
		case Generating:
			if st.AtRetryLimit(maxRetries) {
				return res, apperr.WithHint(
					apperr.New(apperr.KindRetryLimit, "retry limit of %d attempts reached", maxRetries),
					"Raise commit.max_retries or write the message with git commit",
				)
			}
			cc := &prompt.CommitContext{
				FilesChanged: stats.Files,
				Insertions:   stats.Insertions,
				Deletions:    stats.Deletions,
				Branch:       branch,
				CustomPrompt: d.Opts.CustomPrompt,
				Feedback:     st.Feedback,
			}
			msg, err := d.generate(ctx, payload, cc)
			res.Attempts++
			if err != nil {
				return res, err
			}
			res.Message = msg
			if d.Opts.DryRun {
				return res, nil
			}
			st = st.OnGenerated(msg, d.Opts.AutoAccept)

		case WaitingForAction:
			action, err := d.nextAction(ctx, st)
			if err != nil {
				return res, err
			}
			log.Debug("action chosen", zap.Stringer("action", action.Kind))
			st = st.OnAction(action)
			res.Message = st.Message

		case Accepted:
			if err := d.VCS.Commit(ctx, st.Message); err != nil {
				if apperr.IsCancelled(err) {
					return res, err
				}
				return res, apperr.Wrap(apperr.KindVCS, err, "commit failed")
			}
			res.Message = st.Message
			res.Committed = true
			d.UI.Success("Committed: " + subject(st.Message))
			return res, nil

		case Cancelled:
			return res, apperr.ErrCancelled
		}
	}
}

// generate performs one attempt, streaming when enabled and supported.
func (d *Driver) generate(ctx context.Context, diff string, cc *prompt.CommitContext) (string, error) {
	if d.Opts.Streaming && d.Gen.SupportsStreaming() {
		s, err := d.Gen.StreamCommitMessage(ctx, diff, cc)
		if err != nil {
			return "", err
		}
		defer s.Close()

		for chunk := range s.Chunks() {
			d.UI.Chunk(chunk)
		}
		d.UI.ChunksDone()
		return s.Wait()
	}

	stop := d.UI.Progress("Generating commit message with " + d.Gen.Name())
	msg, err := d.Gen.GenerateCommitMessage(ctx, diff, cc)
	stop()
	if err != nil {
		return "", err
	}
	d.UI.ShowMessage(msg)
	return msg, nil
}

// nextAction asks the user what to do with the current message. A cancelled
// menu resolves to quit.
func (d *Driver) nextAction(ctx context.Context, st State) (Action, error) {
	kind, err := d.UI.Menu(ctx, st.Message, d.Opts.AllowEdit, st.Attempt)
	if err != nil {
		if apperr.IsCancelled(err) {
			return Action{Kind: ActionQuit}, nil
		}
		return Action{}, err
	}

	switch kind {
	case ActionEdit:
		if !d.Opts.AllowEdit {
			return Action{Kind: ActionEditCancelled}, nil
		}
		edited, err := d.UI.Edit(ctx, st.Message)
		if err != nil {
			if apperr.IsCancelled(err) {
				d.UI.Warn("Edit cancelled; keeping the current message")
			} else {
				d.UI.Warn("Edit failed: " + err.Error())
			}
			return Action{Kind: ActionEditCancelled}, nil
		}
		return Action{Kind: ActionEdit, Text: edited}, nil

	case ActionRetryWithFeedback:
		fb := d.UI.FreeText(ctx, "What should change in the next attempt?")
		if fb == "" {
			d.UI.Warn("No feedback provided, will retry without additional instructions")
		}
		return Action{Kind: ActionRetryWithFeedback, Text: fb}, nil
	}
	return Action{Kind: kind}, nil
}

func subject(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return line
}
