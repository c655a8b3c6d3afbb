package semantic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/logger"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts per call
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SeriesSource is the read side of the time-series store
type SeriesSource interface {
	Rooms() []string
	Series(room string) (building.RoomTimeSeries, bool)
}

const batchSize = 64

// Indexer embeds time-series readings into an Index
type Indexer struct {
	embedder Embedder
	index    *Index
	timeout  time.Duration
	log      *zap.SugaredLogger

	// Progress, when set, is called after each stored batch
	Progress func(done, total int)
}

// NewIndexer creates an Indexer. timeout bounds each embedding call.
func NewIndexer(embedder Embedder, index *Index, timeout time.Duration, log *zap.SugaredLogger) *Indexer {
	return &Indexer{embedder: embedder, index: index, timeout: timeout, log: logger.OrNop(log)}
}

// IndexStore embeds the occupancy and temperature readings of every stride-th
// sample of every room. Re-indexing replaces earlier embeddings of the same
// readings. Returns the number of entries written.
func (ix *Indexer) IndexStore(ctx context.Context, src SeriesSource, stride int) (int, error) {
	if stride <= 0 {
		stride = 1
	}

	var pending []*Entry
	for _, room := range src.Rooms() {
		series, ok := src.Series(room)
		if !ok {
			continue
		}
		for i, pair := range series.Readings() {
			if i%stride != 0 {
				continue
			}
			pending = append(pending,
				entryFor(room, pair.Occupancy, building.KindOccupancy),
				entryFor(room, pair.Temperature, building.KindTemperature))
		}
	}

	total := len(pending)
	ix.log.Infow("Indexing readings", logger.FieldRooms, len(src.Rooms()), logger.FieldCount, total, "stride", stride)

	done := 0
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := pending[start:end]

		if err := ix.embed(ctx, batch); err != nil {
			return done, errors.WrapAs(errors.ErrRetrieval, err, "embed readings")
		}
		if err := ix.index.SaveBatch(ctx, batch); err != nil {
			return done, err
		}

		done = end
		if ix.Progress != nil {
			ix.Progress(done, total)
		}
	}

	ix.log.Infow("Indexed readings", logger.FieldCount, done)
	return done, nil
}

func entryFor(room string, r building.Reading, kind building.SensorKind) *Entry {
	return &Entry{
		RoomID:     room,
		SensorID:   r.SensorID,
		ObservedAt: r.Timestamp,
		Text:       r.Text(room, kind),
	}
}

func (ix *Indexer) embed(ctx context.Context, batch []*Entry) error {
	texts := make([]string, len(batch))
	for i, e := range batch {
		texts[i] = e.Text
	}

	vectors, err := embedTexts(ctx, ix.embedder, ix.timeout, texts)
	if err != nil {
		return err
	}
	for i, e := range batch {
		e.Embedding = vectors[i]
	}
	return nil
}
