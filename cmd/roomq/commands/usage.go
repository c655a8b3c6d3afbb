package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/ai/tracker"
	"github.com/teranos/roomq/errors"
)

// UsageCmd reports language-model usage recorded in the local database
var UsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show language-model usage",
	Long: `Summarise the model calls roomq has made: request counts, success
rate, tokens and cost, broken down by model and operation.

Examples:
  roomq usage
  roomq usage --since 168h`,
	Args: cobra.NoArgs,
	RunE: runUsage,
}

var usageSince time.Duration

func init() {
	UsageCmd.Flags().DurationVar(&usageSince, "since", 24*time.Hour, "Window to report on")
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	since := time.Now().Add(-usageSince)
	t := tracker.NewUsageTracker(database)

	stats, err := t.GetUsageStats(since)
	if err != nil {
		return err
	}
	breakdown, err := t.GetModelBreakdown(since)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Printfln("Model usage since %s", since.Format("2006-01-02 15:04"))
	fmt.Printf("Requests:   %d (%d successful, %.1f%%)\n", stats.TotalRequests, stats.SuccessfulRequests, stats.SuccessRate*100)
	fmt.Printf("Tokens:     %d\n", stats.TotalTokens)
	fmt.Printf("Cost:       $%.4f\n", stats.TotalCost)
	fmt.Printf("Models:     %d\n", stats.UniqueModels)

	if len(breakdown) == 0 {
		return nil
	}
	data := pterm.TableData{{"Model", "Provider", "Operation", "Requests", "Tokens", "Cost"}}
	for _, b := range breakdown {
		data = append(data, []string{
			b.ModelName, b.ModelProvider, b.OperationType,
			fmt.Sprint(b.RequestCount), fmt.Sprint(b.TotalTokens), fmt.Sprintf("$%.4f", b.TotalCost),
		})
	}
	fmt.Println()
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
