package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/commitcraft/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List and check configured providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSTYLE\tMODEL\tENDPOINT")
		for _, name := range cfg.ProviderNames() {
			pc := cfg.LLM.Providers[name]
			style := "?"
			if s, err := providers.ResolveStyle(name, pc.APIStyle); err == nil {
				style = string(s)
			}
			endpoint := pc.Endpoint
			if endpoint == "" {
				endpoint = "(default)"
			}
			marker := ""
			if name == cfg.LLM.DefaultProvider {
				marker = " *"
			}
			model := pc.Model
			if model == "" {
				model = "(default)"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", name, marker, style, model, endpoint)
		}
		return tw.Flush()
	},
}

var providersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate provider credentials and connectivity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		log := newLogger(cfg)
		p, err := newProvider(cfg, log)
		if err != nil {
			exitCode = fail(cmd, err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s (%s, %s)...\n", p.Name(), p.Style(), p.Model())
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := p.Validate(ctx); err != nil {
			exitCode = fail(cmd, err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured\n", p.Name())
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersCheckCmd)
}
