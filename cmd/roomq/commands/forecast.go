package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/errors"
)

// ForecastCmd prints the occupancy forecast
var ForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show current occupancy and the next-hour forecast",
	Long: `Report which rooms are occupied right now (by their latest sample) and
which rooms are likely to be occupied in the coming hour, based on the
historical share of occupied samples per hour of day.

Examples:
  roomq forecast
  roomq forecast --hour 9
  roomq forecast --json`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

var (
	forecastHour int
	forecastJSON bool
)

func init() {
	ForecastCmd.Flags().IntVar(&forecastHour, "hour", -1, "Forecast this hour of day (0-23) instead of the next hour")
	ForecastCmd.Flags().BoolVarP(&forecastJSON, "json", "j", false, "Print the forecast with per-hour probabilities as JSON")
}

func runForecast(cmd *cobra.Command, args []string) error {
	if forecastHour < -1 || forecastHour > 23 {
		return errors.Newf("--hour must be between 0 and 23, got %d", forecastHour)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if a.store == nil {
		return errors.Wrap(a.storeErr, "time-series data unavailable")
	}

	series := a.store.All()
	result := a.engine.Forecast(series)
	if forecastHour >= 0 {
		result = a.engine.ForecastAt(series, forecastHour)
	}

	if forecastJSON {
		return printJSON(result)
	}
	renderForecast(result)
	return nil
}
