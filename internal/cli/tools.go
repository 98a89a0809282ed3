package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
)

func newToolsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Name", "Description", "Serial", "Tags"})
			for _, t := range a.reg.GetAllTools() {
				var serial bool
				var tags []string
				if meta, ok := t.(tooluse.ToolMetadata); ok {
					serial = meta.IsSerial()
					tags = meta.Tags()
				}
				tw.AppendRow(table.Row{t.Name(), t.Description(), serial, strings.Join(tags, ",")})
			}
			tw.Render()
			return nil
		},
	}
}
