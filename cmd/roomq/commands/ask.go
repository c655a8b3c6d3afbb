package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/forecast"
	"github.com/teranos/roomq/knowledge"
	"github.com/teranos/roomq/resolve"
)

// AskCmd resolves one question
var AskCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Answer a question about the building",
	Long: `Classify the question and walk the answer cascade: knowledge graph,
vector index, then the time-series tables. Forecast questions are answered
from the tables; anything else goes to the general assistant.

With --generated the question is translated into a read-only graph query
instead, and the query is executed directly.

Examples:
  roomq ask "which room was coldest"
  roomq ask "when is room 101 occupied"
  roomq ask --json "which AC unit serves room 102"
  roomq ask --generated "list every room on floor 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askJSON      bool
	askGenerated bool
)

func init() {
	AskCmd.Flags().BoolVarP(&askJSON, "json", "j", false, "Print the full outcome as JSON")
	AskCmd.Flags().BoolVar(&askGenerated, "generated", false, "Answer with a model-generated graph query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	question := strings.Join(args, " ")
	var out resolve.Outcome
	if askGenerated {
		out = a.resolver.ResolveGenerated(ctx, question)
	} else {
		out = a.resolver.Resolve(ctx, question)
	}

	if askJSON {
		return printJSON(out)
	}
	verbose, _ := cmd.Flags().GetCount("verbose")
	renderOutcome(out, verbose > 0)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// renderOutcome prints an outcome for a terminal
func renderOutcome(out resolve.Outcome, verbose bool) {
	if !out.Answered() {
		pterm.Warning.Println(out.Reason)
		if verbose {
			renderAttempts(out.Attempts)
		}
		return
	}

	if out.Forecast != nil {
		renderForecast(*out.Forecast)
	} else {
		pterm.Success.Println(out.Text)
	}

	if len(out.Rows) > 0 && verbose {
		if err := pterm.DefaultTable.WithHasHeader().WithData(tableData(out.Rows)).Render(); err != nil {
			pterm.Error.Println(err)
		}
	}
	if verbose {
		if out.Query != "" {
			pterm.Info.Println("Query: " + out.Query)
		}
		pterm.Info.Printfln("Answered by %s (intent %s)", out.Stage, out.Intent)
		renderAttempts(out.Attempts)
	}
}

func renderAttempts(attempts []resolve.Attempt) {
	if len(attempts) == 0 {
		return
	}
	data := pterm.TableData{{"Stage", "Status", "ms", "Error"}}
	for _, at := range attempts {
		data = append(data, []string{string(at.Stage), at.Status, fmt.Sprint(at.DurationMS), at.Error})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func renderForecast(r forecast.Result) {
	pterm.DefaultSection.Println("Occupied now")
	pterm.Println(roomList(r.OccupiedNow))
	pterm.DefaultSection.Println("Vacant now")
	pterm.Println(roomList(r.VacantNow))
	pterm.DefaultSection.Printfln("Likely occupied at %s", r.TargetTime.Format("2006-01-02 15:00 MST"))
	if len(r.LikelyOccupied) == 0 {
		pterm.Printfln("No room crosses the %.0f%% probability threshold for the coming hour.", r.Threshold*100)
		return
	}
	pterm.Println(roomList(r.LikelyOccupied))
}

func roomList(rooms []string) string {
	if len(rooms) == 0 {
		return "none"
	}
	return strings.Join(rooms, ", ")
}

// tableData lays rows out under the sorted union of their keys
func tableData(rows []knowledge.Row) pterm.TableData {
	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	data := pterm.TableData{cols}
	for _, row := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := row[c]; ok && v != nil {
				line[i] = fmt.Sprint(v)
			}
		}
		data = append(data, line)
	}
	return data
}
