package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/commitcraft/internal/gitctx"
	"github.com/dshills/commitcraft/internal/ui"
	"github.com/dshills/commitcraft/internal/workflow"
)

// Commit flags
var (
	flagYes      bool
	flagNoEdit   bool
	flagDryRun   bool
	flagNoStream bool
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Generate a commit message for staged changes and commit",
	Long: `Generate a commit message for the staged changes, then accept, edit,
retry, or retry with feedback before committing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runCommit(cmd)
		return nil
	},
}

func runCommit(cmd *cobra.Command) int {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(cmd, err)
	}
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	repo, err := gitctx.Open(ctx, ".")
	if err != nil {
		return fail(cmd, err)
	}
	p, err := newProvider(cfg, log)
	if err != nil {
		return fail(cmd, err)
	}
	log.Debug("commit run",
		zap.String("provider", p.Name()),
		zap.String("model", p.Model()),
		zap.String("repo", repo.Root()),
	)

	term := ui.New(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.UI.Colored)
	d := &workflow.Driver{
		VCS: repo,
		Gen: p,
		UI:  term,
		Opts: workflow.Options{
			MaxRetries:    cfg.Commit.MaxRetries,
			Streaming:     cfg.Commit.Streaming && !flagNoStream,
			AutoAccept:    flagYes,
			AllowEdit:     cfg.Commit.AllowEdit && !flagNoEdit,
			DryRun:        flagDryRun,
			ShowPreview:   cfg.Commit.ShowDiffPreview,
			CustomPrompt:  cfg.Commit.CustomPrompt,
			RedactSecrets: cfg.Privacy.RedactSecrets,
			RedactPaths:   cfg.Privacy.RedactPaths,
		},
		Log: log,
	}

	res, err := d.Run(ctx)
	if err != nil {
		return fail(cmd, err)
	}
	if flagDryRun {
		term.Notice(fmt.Sprintf("Dry run: nothing committed (%d attempt(s))", res.Attempts))
	}
	return ExitSuccess
}

func init() {
	commitCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Commit the first generated message without asking")
	commitCmd.Flags().BoolVar(&flagNoEdit, "no-edit", false, "Hide the edit action")
	commitCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print a generated message without committing")
	commitCmd.Flags().BoolVar(&flagNoStream, "no-stream", false, "Wait for the full message instead of streaming it")
}
