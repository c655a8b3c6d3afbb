package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/db"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/logger"
	"github.com/teranos/roomq/semantic"
)

// IndexCmd embeds the time-series tables into the vector index
var IndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed sensor history into the vector index",
	Long: `Turn sampled sensor readings into short texts, embed them and store
them in the local vector index used by the semantic fallback. Re-running
replaces existing readings for the same sensor, time and model.

Examples:
  roomq index
  roomq index --stride 12`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexStride int

func init() {
	IndexCmd.Flags().IntVar(&indexStride, "stride", 0, "Embed every Nth sample (default: embeddings.index_stride)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	switch {
	case a.store == nil:
		return errors.Wrap(a.storeErr, "time-series data unavailable")
	case a.embedder == nil:
		return errors.WithHint(
			errors.Wrap(errors.ErrServiceUnavailable, "no embedding endpoint configured"),
			"set embeddings.api_key or OPENAI_API_KEY")
	case a.index == nil:
		return errors.Wrap(errors.ErrServiceUnavailable, "local database unavailable")
	}

	stride := indexStride
	if stride <= 0 {
		stride = a.cfg.Embeddings.IndexStride
	}

	indexer := semantic.NewIndexer(a.embedder, a.index, a.cfg.Timeouts.Vector(), logger.ComponentLogger("semantic"))

	spinner, _ := pterm.DefaultSpinner.Start("Embedding readings...")
	indexer.Progress = func(done, total int) {
		spinner.UpdateText(fmt.Sprintf("Embedding readings... %d/%d", done, total))
	}

	n, err := indexer.IndexStore(ctx, a.store, stride)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("Embedded %d readings", n))

	total, err := a.index.Count(ctx)
	if err != nil {
		return err
	}
	vec, _ := db.VecVersion(a.db)
	pterm.Info.Printfln("Index holds %d readings for %s (sqlite-vec %s)", total, a.embedder.Model(), vec)
	return nil
}
