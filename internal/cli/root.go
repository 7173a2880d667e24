package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/config"
	"github.com/dshills/commitcraft/internal/logging"
	"github.com/dshills/commitcraft/internal/providers"
)

// Version is the release version, overridden at build time with -ldflags.
var Version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitRuntimeError = 4
)

// Global flags
var (
	flagConfig   string
	flagProvider string
	flagVerbose  bool
	flagNoColor  bool
)

var rootCmd = &cobra.Command{
	Use:           "commitcraft",
	Short:         "AI commit messages and code review",
	Long:          "commitcraft writes commit messages for staged changes and reviews code using Claude, OpenAI-compatible, or Ollama models.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command and returns an exit code. SIGINT and
// SIGTERM cancel the command's context.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Run 'commitcraft --help' for usage.")
		return ExitUsageError
	}
	return exitCode
}

// loadConfig resolves the effective config for cmd, applying global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig, map[string]*pflag.Flag{
		"ui.verbose":           cmd.Flags().Lookup("verbose"),
		"llm.default_provider": cmd.Flags().Lookup("provider"),
	})
	if err != nil {
		return nil, err
	}
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		cfg.UI.Colored = false
	}
	return cfg, nil
}

// newProvider builds the configured default provider, or the one named by
// --provider.
func newProvider(cfg *config.Config, log *zap.Logger) (*providers.Provider, error) {
	name, pc, err := cfg.Provider("")
	if err != nil {
		return nil, err
	}
	return providers.New(name, pc, cfg.Network, providers.WithLogger(log.Named(name)))
}

// fail reports err on stderr and returns the matching exit code. A user
// abort is a clean exit.
func fail(cmd *cobra.Command, err error) int {
	w := cmd.ErrOrStderr()
	if apperr.IsCancelled(err) {
		fmt.Fprintln(w, "Cancelled.")
		return ExitSuccess
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, h := range apperr.Hints(err) {
		fmt.Fprintf(w, "Tip: %s\n", h)
	}
	if apperr.Is(err, apperr.KindConfig) || providers.IsAuthError(err) {
		return ExitConfigError
	}
	return ExitRuntimeError
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(rootCmd.ErrOrStderr(), cfg.UI.Verbose)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print commitcraft version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "commitcraft version %s\n", Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file path (default: user config dir)")
	pf.StringVarP(&flagProvider, "provider", "p", "", "Provider name from llm.providers")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}
