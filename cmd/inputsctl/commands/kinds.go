package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	inputs "github.com/goliatone/go-inputs"
)

func newKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the target kinds a manifest may declare",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, kind := range inputs.Kinds() {
				label := "data"
				if kind.IsFunction() {
					label = "function"
				}
				fmt.Fprintf(out(cmd), "%-16s %s\n", kind, label)
			}
			return nil
		},
	}
}
