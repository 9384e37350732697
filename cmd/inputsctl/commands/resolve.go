package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	inputs "github.com/goliatone/go-inputs"
)

var errUnresolved = errors.New("unresolved targets")

func newResolveCommand() *cobra.Command {
	var (
		at         []float64
		atTime     float64
		jsonOutput bool
		showSource bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Resolve every target declared by a manifest",
		Long: `Resolve builds the sources described by the manifest, runs one resolution
pass and prints each target. Function targets print as <function> unless
--at is given, in which case they are evaluated at that position.`,
		Example: `  # Resolve and print every target
  inputsctl resolve case.yaml

  # Evaluate function targets at x=(0.25, 0) and t=0.1
  inputsctl resolve case.yaml --at 0.25,0 --time 0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := inputs.LoadManifest(args[0])
			if err != nil {
				return err
			}
			r, closer, err := manifest.Build(inputs.WithLogger(inputs.NewZerologLogger(log.Logger)))
			if err != nil {
				return err
			}
			defer closer.Close()

			all, err := r.ResolveInputs()
			if err != nil {
				return err
			}

			var p *probe
			if cmd.Flags().Changed("at") {
				p = &probe{x: at, t: atTime}
			}
			rows, err := collect(r, p)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(out(cmd))
				enc.SetIndent("", "  ")
				if err := enc.Encode(rows); err != nil {
					return err
				}
			} else {
				for _, row := range rows {
					fmt.Fprintln(out(cmd), row.text(showSource))
				}
			}
			if !all {
				return errUnresolved
			}
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&at, "at", nil, "position at which to evaluate function targets")
	cmd.Flags().Float64Var(&atTime, "time", 0, "time at which to evaluate function targets")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&showSource, "show-source", false, "print the source that answered each target")
	return cmd
}
