package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/knowledge"
)

// CypherCmd previews the graph query generated for a question
var CypherCmd = &cobra.Command{
	Use:   "cypher <question...>",
	Short: "Translate a question into a graph query",
	Long: `Ask the language model to translate a question into a Cypher query and
print it, together with the read-only check. With --run the query is
executed and its rows are printed.

Examples:
  roomq cypher "which rooms does AC2 serve"
  roomq cypher --run "list every AC unit"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCypher,
}

var cypherRun bool

func init() {
	CypherCmd.Flags().BoolVar(&cypherRun, "run", false, "Execute the generated query")
}

func runCypher(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	question := strings.Join(args, " ")
	verbose, _ := cmd.Flags().GetCount("verbose")

	if cypherRun {
		renderOutcome(a.resolver.ResolveGenerated(ctx, question), verbose > 0)
		return nil
	}

	if a.translate == nil {
		return errors.WithHint(
			errors.Wrap(errors.ErrServiceUnavailable, "no language model configured"),
			"set openrouter.api_key or enable local_inference")
	}
	q, err := a.translate.Translate(ctx, question)
	if err != nil {
		return err
	}

	pterm.DefaultBox.WithTitle("cypher").Println(q.Text)
	if err := knowledge.CheckReadOnly(q.Text); err != nil {
		pterm.Warning.Println(err.Error())
		return nil
	}
	pterm.Success.Println("Query is read-only")
	return nil
}
