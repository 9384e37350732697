package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	inputs "github.com/goliatone/go-inputs"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Check a manifest and the files it references",
		Long: `Validate loads the manifest, runs the script, registers its tables and
values and parses the defaults file without resolving any target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := inputs.LoadManifest(args[0])
			if err != nil {
				return err
			}
			r, closer, err := manifest.Build(inputs.WithLogger(inputs.NopLogger()))
			if err != nil {
				return err
			}
			defer closer.Close()

			total := 0
			for _, kind := range inputs.Kinds() {
				total += len(r.Targets(kind))
			}
			log.Debug().
				Str("manifest", args[0]).
				Int("sources", len(r.Sources())).
				Int("targets", total).
				Msg("manifest loaded")
			fmt.Fprintf(out(cmd), "%s: ok (%d sources, %d targets)\n", args[0], len(r.Sources()), total)
			return nil
		},
	}
}
