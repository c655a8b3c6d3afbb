package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/knowledge"
)

// GraphCmd groups knowledge graph inspection commands
var GraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the knowledge graph",
	Long: `Inspect the Neo4j knowledge graph roomq answers structured questions from.

Examples:
  roomq graph ping
  roomq graph preview --limit 20`,
}

var graphPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print a sample of nodes and relationships",
	Args:  cobra.NoArgs,
	RunE:  runGraphPreview,
}

var graphPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the graph store",
	Args:  cobra.NoArgs,
	RunE:  runGraphPing,
}

var (
	previewLimit int
	previewJSON  bool
)

func init() {
	graphPreviewCmd.Flags().IntVar(&previewLimit, "limit", 0, "Maximum relationships to show (default: graph.preview_limit)")
	graphPreviewCmd.Flags().BoolVarP(&previewJSON, "json", "j", false, "Print edges as JSON")

	GraphCmd.AddCommand(graphPreviewCmd)
	GraphCmd.AddCommand(graphPingCmd)
}

func graphUnavailable() error {
	return errors.WithHint(
		errors.Wrap(errors.ErrServiceUnavailable, "graph store not configured"),
		"set graph.uri or NEO4J_URI")
}

func runGraphPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if a.executor == nil {
		return graphUnavailable()
	}

	limit := previewLimit
	if limit <= 0 {
		limit = a.cfg.Graph.PreviewLimit
	}
	edges, err := a.executor.Preview(ctx, limit)
	if err != nil {
		return err
	}

	if previewJSON {
		return printJSON(edges)
	}
	if len(edges) == 0 {
		pterm.Warning.Println("The graph is empty")
		return nil
	}
	pterm.DefaultTable.WithHasHeader().WithData(edgeTable(edges)).Render()
	pterm.Info.Printfln("%d relationships", len(edges))
	return nil
}

func edgeTable(edges []knowledge.Edge) pterm.TableData {
	data := pterm.TableData{{"From", "Relationship", "To"}}
	for _, e := range edges {
		data = append(data, []string{e.From.Caption(), fmt.Sprintf("-[%s]->", e.Type), e.To.Caption()})
	}
	return data
}

func runGraphPing(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if a.graph == nil {
		return graphUnavailable()
	}
	if err := a.graph.Verify(ctx); err != nil {
		return err
	}
	pterm.Success.Printfln("Connected to %s", a.cfg.Graph.URI)
	return nil
}
