package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/danihelis/algorithms/pkg/engine"
)

var algebraDescriptions = map[string]string{
	engine.AlgebraCount: "number of positions equal to --target",
	engine.AlgebraSum:   "sum of the symbols",
	engine.AlgebraMin:   "smallest symbol",
	engine.AlgebraMax:   "largest symbol",
	engine.AlgebraSign:  "sign of the product of the symbols (-, 0, +)",
}

// NewAlgebrasCommand creates the algebras command.
func NewAlgebrasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "algebras",
		Short: "List the available algebras",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"algebra", "query value"})

			for _, name := range engine.Names() {
				tw.AppendRow(table.Row{name, algebraDescriptions[name]})
			}

			tw.Render()
		},
	}
}
