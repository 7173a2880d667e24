package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/config"
	"github.com/dshills/commitcraft/internal/ui"
)

var flagForce bool

// openEditor is swapped in tests.
var openEditor = ui.OpenEditor

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage commitcraft configuration",
	Long:  "Manage commitcraft configuration. Without a subcommand the config file is opened for editing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runConfigEdit(cmd)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the config file and validate the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runConfigEdit(cmd)
		return nil
	},
}

// runConfigEdit opens the config file until it loads and validates, or the
// user gives up and the previous contents are restored.
func runConfigEdit(cmd *cobra.Command) int {
	path, err := configPath()
	if err != nil {
		return fail(cmd, err)
	}
	previous, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(cmd, apperr.Config("Run 'commitcraft config init' to create it", "config file not found at %s", path))
		}
		return fail(cmd, apperr.Wrap(apperr.KindConfig, err, "reading config file %s", path))
	}

	term := ui.New(cmd.InOrStdin(), cmd.OutOrStdout(), !flagNoColor)
	ctx := cmd.Context()
	for {
		term.Notice(fmt.Sprintf("Editing %s ...", path))
		if err := openEditor(ctx, path); err != nil {
			if rerr := os.WriteFile(path, previous, 0o600); rerr != nil {
				return fail(cmd, apperr.Wrap(apperr.KindConfig, rerr, "restoring config file %s", path))
			}
			return fail(cmd, err)
		}

		cfg, err := config.Load(path, nil)
		if err == nil {
			err = cfg.Validate()
		}
		if err == nil {
			term.Success("Config file updated")
			return ExitSuccess
		}

		term.Warn(fmt.Sprintf("Config validation failed: %v", err))
		again, cerr := term.Confirm(ctx, "Edit again?", true)
		if cerr == nil && again {
			continue
		}
		if rerr := os.WriteFile(path, previous, 0o600); rerr != nil {
			return fail(cmd, apperr.Wrap(apperr.KindConfig, rerr, "restoring config file %s", path))
		}
		term.Warn("Config restored to previous version")
		if cerr != nil {
			return fail(cmd, cerr)
		}
		return ExitSuccess
	}
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.ConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		if err := config.Init(path, flagForce); err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		data, err := yaml.Marshal(masked(*cfg))
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// masked hides API keys so the output can be shared.
func masked(cfg config.Config) config.Config {
	provs := make(map[string]config.ProviderConfig, len(cfg.LLM.Providers))
	for name, pc := range cfg.LLM.Providers {
		if pc.APIKey != "" {
			pc.APIKey = "********"
		}
		provs[name] = pc
	}
	cfg.LLM.Providers = provs
	return cfg
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
}
