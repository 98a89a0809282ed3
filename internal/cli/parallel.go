package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/functions"
)

// parallelRow is one get_data call as observed by the caller.
type parallelRow struct {
	id        string
	submitted time.Duration
	finished  time.Duration
	result    functions.DataResult
	err       error
}

func newParallelCommand(a *app) *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "parallel",
		Short: "Issue get_data calls concurrently and show that they run one at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := runParallel(cmd.Context(), a.reg, ids)

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"#", "ID", "Submitted", "Finished", "Data", "Error"})
			for i, r := range rows {
				errText := ""
				if r.err != nil {
					errText = r.err.Error()
				}
				tw.AppendRow(table.Row{
					i + 1, r.id,
					r.submitted.Round(time.Millisecond), r.finished.Round(time.Millisecond),
					r.result.Data, errText,
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", []string{"1", "2", "3"}, "data IDs to fetch concurrently")
	return cmd
}

// runParallel starts one get_data call per id at the same time and returns the calls in
// completion order.
func runParallel(ctx context.Context, reg *tooluse.Registry, ids []string) []parallelRow {
	start := time.Now()
	rows := make([]parallelRow, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Go(func() {
			args, _ := json.Marshal(functions.DataArgs{ID: id})
			row := parallelRow{id: id, submitted: time.Since(start)}
			res := reg.Execute(ctx, tooluse.ToolCall{ID: fmt.Sprint(i + 1), ToolName: functions.GetDataName, Args: args})
			row.finished = time.Since(start)
			row.err = res.Error
			if res.Error == nil {
				row.err = json.Unmarshal(res.Result, &row.result)
			}
			rows[i] = row
		})
	}
	wg.Wait()
	slices.SortStableFunc(rows, func(x, y parallelRow) int { return cmp.Compare(x.finished, y.finished) })
	return rows
}
