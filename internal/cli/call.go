package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
)

func newCallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Execute one tool call and print its JSON result",
		Example: `  tooluse call get_weather '{"location":"Tokyo"}'
  tooluse call format_user_data '{"name":" Taro ","age":30.5,"email":"TARO@EXAMPLE.COM"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			argsJSON := []byte(`{}`)
			if len(args) == 2 {
				argsJSON = []byte(args[1])
			}
			res := a.reg.Execute(cmd.Context(), tooluse.ToolCall{ID: "cli", ToolName: args[0], Args: argsJSON})
			if res.Error != nil {
				return fmt.Errorf("%s: %w", args[0], res.Error)
			}
			var out bytes.Buffer
			if err := json.Indent(&out, res.Result, "", "  "); err != nil {
				return fmt.Errorf("format result: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return err
		},
	}
}
