package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/functions"
)

func newFallbackCommand(a *app) *cobra.Command {
	var (
		failRate float64
		location string
	)
	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Call get_weather with simulated failures and fall back to a generic answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			weather, err := functions.New(a.functionOptions(functions.WithWeatherFailureRate(failRate))...).WeatherTool()
			if err != nil {
				return err
			}
			a.reg.Register(weather)

			args, err := json.Marshal(functions.WeatherArgs{Location: location})
			if err != nil {
				return err
			}
			res := a.reg.Execute(cmd.Context(), tooluse.ToolCall{ID: "weather", ToolName: functions.GetWeatherName, Args: args})
			out := cmd.OutOrStdout()
			if res.Error != nil {
				a.logger.WarnContext(cmd.Context(), "weather tool failed, using fallback", "location", location, "error", res.Error)
				_, err = fmt.Fprintf(out, "fallback: weather for %s is unavailable right now; ask for general seasonal trends instead\n", location)
				return err
			}
			var w functions.WeatherResult
			if err := json.Unmarshal(res.Result, &w); err != nil {
				return fmt.Errorf("decode weather: %w", err)
			}
			_, err = fmt.Fprintf(out, "weather in %s: %s\n", location, w.Weather)
			return err
		},
	}
	cmd.Flags().Float64Var(&failRate, "fail-rate", 0.5, "probability that the weather API call fails")
	cmd.Flags().StringVar(&location, "location", "Tokyo", "location to ask about")
	return cmd
}
