package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit string) error {
	return newRootCommand(version, commit).ExecuteContext(ctx)
}

func newRootCommand(version, commit string) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "inputsctl",
		Short: "Resolve simulation inputs from scripts, expressions and defaults",
		Long: `inputsctl loads a manifest describing a Lua case script, optional
expressions and hard-coded defaults, registers the manifest's targets and
resolves them in priority order: script, expressions, defaults.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newResolveCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newKindsCommand())
	return root
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
