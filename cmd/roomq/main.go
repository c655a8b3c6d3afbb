package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/roomq/am"
	"github.com/teranos/roomq/cmd/roomq/commands"
	"github.com/teranos/roomq/intent"
	"github.com/teranos/roomq/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "roomq",
	Short: "roomq - ask questions about rooms, AC units and sensor history",
	Long: `roomq - answers natural-language questions about a building.

Questions are classified, then answered from the knowledge graph, the
sensor vector index or the per-room time-series tables, whichever
answers first. Occupancy forecasts come from the same tables.

Available commands:
  ask      - Answer a question
  chat     - Ask questions interactively
  forecast - Show current occupancy and the next-hour forecast
  cypher   - Translate a question into a graph query
  graph    - Inspect the knowledge graph
  index    - Embed sensor history into the vector index
  usage    - Show language-model usage
  am       - Manage roomq configuration

Examples:
  roomq ask "which room was hottest?"
  roomq ask --json "which AC unit serves room 101"
  roomq forecast --hour 9
  roomq cypher --run "list every AC unit"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		am.LoadDotEnv(".env")

		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if commands.StrategyOverride != "" {
			if _, err := intent.ParseStrategy(commands.StrategyOverride); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&commands.StrategyOverride, "strategy", "", "Classifier strategy: rules or model (overrides classifier.strategy)")

	rootCmd.AddCommand(commands.AskCmd)
	rootCmd.AddCommand(commands.ChatCmd)
	rootCmd.AddCommand(commands.ForecastCmd)
	rootCmd.AddCommand(commands.CypherCmd)
	rootCmd.AddCommand(commands.GraphCmd)
	rootCmd.AddCommand(commands.IndexCmd)
	rootCmd.AddCommand(commands.UsageCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
