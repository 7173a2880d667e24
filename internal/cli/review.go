package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/cache"
	"github.com/dshills/commitcraft/internal/gitctx"
	"github.com/dshills/commitcraft/internal/output"
	"github.com/dshills/commitcraft/internal/review"
	"github.com/dshills/commitcraft/internal/ui"
)

// Shared review flags
var (
	flagFormat      string
	flagOut         string
	flagMinSeverity string
	flagNoCache     bool
	flagNoRedact    bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "text", "Output format (text, json, markdown)")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagMinSeverity, "min-severity", "", "Hide issues below this severity (info, warning, critical)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Ignore cached review results")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

// diffSource fetches the diff under review.
type diffSource func(ctx context.Context, repo *gitctx.Repo) (string, error)

func runReview(cmd *cobra.Command, kind review.Kind, source diffSource) int {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(cmd, err)
	}
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	minSeverity := cfg.Review.MinSeverity
	if flagMinSeverity != "" {
		minSeverity = flagMinSeverity
	}
	if minSeverity != "" {
		if _, err := review.ParseSeverity(minSeverity); err != nil {
			return fail(cmd, apperr.Wrap(apperr.KindConfig, err, "invalid minimum severity"))
		}
	}
	if _, err := output.GetWriter(flagFormat, false); err != nil {
		return fail(cmd, err)
	}

	ctx := cmd.Context()
	repo, err := gitctx.Open(ctx, ".")
	if err != nil {
		return fail(cmd, err)
	}
	diff, err := source(ctx, repo)
	if err != nil {
		return fail(cmd, err)
	}
	p, err := newProvider(cfg, log)
	if err != nil {
		return fail(cmd, err)
	}

	redact := cfg.Privacy.RedactSecrets
	if flagNoRedact {
		redact = false
		log.Warn("secret redaction is disabled")
	}
	runner := &review.Runner{
		Reviewer:     p,
		Model:        p.Model(),
		CustomPrompt: cfg.Review.CustomPrompt,
		Redact:       redact,
		RedactPaths:  cfg.Privacy.RedactPaths,
		Logger:       log,
	}
	if cfg.Cache.Enabled && !flagNoCache {
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			log.Warn("review cache unavailable", zap.Error(err))
		} else {
			runner.Cache = c
		}
	}

	// Progress goes to stderr so machine-readable output stays clean.
	term := ui.New(cmd.InOrStdin(), cmd.ErrOrStderr(), cfg.UI.Colored)
	stop := term.Progress(fmt.Sprintf("Reviewing %s with %s", kind, p.Name()))
	start := time.Now()
	res, err := runner.Run(ctx, diff, kind)
	stop()
	if err != nil {
		return fail(cmd, err)
	}

	report := &output.Report{
		Target:   kind.String(),
		Provider: p.Name(),
		Model:    p.Model(),
		Elapsed:  time.Since(start),
		Result:   res.Filter(minSeverity),
	}
	if err := writeReport(cmd, report, cfg.UI.Colored); err != nil {
		return fail(cmd, err)
	}
	return ExitSuccess
}

func writeReport(cmd *cobra.Command, report *output.Report, colored bool) error {
	if flagOut != "" {
		return output.WriteReport(report, flagFormat, flagOut, false)
	}
	w, err := output.GetWriter(flagFormat, colored)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), report)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code using the configured provider. Use subcommands to choose what to review.",
}

var reviewChangesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Review uncommitted changes (working tree and index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runReview(cmd, review.Kind{Target: review.TargetChanges}, func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.UncommittedDiff(ctx)
		})
		return nil
	},
}

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <hash>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := args[0]
		exitCode = runReview(cmd, review.Kind{Target: review.TargetCommit, Ref: hash}, func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.CommitDiff(ctx, hash)
		})
		return nil
	},
}

var reviewRangeCmd = &cobra.Command{
	Use:   "range <from..to>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rng := args[0]
		exitCode = runReview(cmd, review.Kind{Target: review.TargetRange, Ref: rng}, func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.RangeDiff(ctx, rng)
		})
		return nil
	},
}

var reviewFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Review a whole file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		exitCode = runReview(cmd, review.Kind{Target: review.TargetFile, Ref: path}, func(_ context.Context, repo *gitctx.Repo) (string, error) {
			content, err := repo.FileContent(path)
			if err != nil {
				return "", err
			}
			return gitctx.FileAsDiff(path, content), nil
		})
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{
		reviewChangesCmd,
		reviewCommitCmd,
		reviewRangeCmd,
		reviewFileCmd,
	} {
		reviewCmd.AddCommand(cmd)
		addReviewFlags(cmd)
	}
}
