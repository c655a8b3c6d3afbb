// Package semantic is the similarity-search fallback over embedded sensor
// readings: an sqlite-vec index, the indexer that fills it from the
// time-series tables, and the retriever that answers questions from it.
package semantic

import (
	"context"
	"database/sql"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/logger"
)

// Entry is one embedded reading
type Entry struct {
	ID         string
	RoomID     string
	SensorID   string
	ObservedAt time.Time
	Text       string
	Embedding  []float32
}

// Hit is a search result. Similarity is 1 - distance/2, which maps the L2
// distance of unit vectors (0..2) onto 1..0.
type Hit struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SensorID   string    `json:"sensor_id"`
	ObservedAt time.Time `json:"observed_at"`
	Text       string    `json:"text"`
	Distance   float64   `json:"distance"`
	Similarity float64   `json:"similarity"`
}

// Index stores reading embeddings for one embedding model
type Index struct {
	db    *sql.DB
	model string
	log   *zap.SugaredLogger
}

// NewIndex creates an index over the reading_embeddings table. Rows written
// by other models are invisible to Search.
func NewIndex(db *sql.DB, model string, log *zap.SugaredLogger) *Index {
	return &Index{db: db, model: model, log: logger.OrNop(log)}
}

const upsertEntry = `
	INSERT INTO reading_embeddings (
		id, room_id, sensor_id, observed_at, text, model, dimensions, embedding
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(sensor_id, observed_at, model) DO UPDATE SET
		text = excluded.text,
		dimensions = excluded.dimensions,
		embedding = excluded.embedding
`

// Save stores one entry, replacing an earlier embedding of the same reading
func (x *Index) Save(ctx context.Context, e *Entry) error {
	return x.SaveBatch(ctx, []*Entry{e})
}

// SaveBatch stores entries in a single transaction
func (x *Index) SaveBatch(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin embedding batch")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertEntry)
	if err != nil {
		return errors.Wrap(err, "failed to prepare embedding insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if e == nil {
			return errors.New("embedding entry is nil")
		}
		if len(e.Embedding) == 0 {
			return errors.Newf("embedding for %s at %s is empty", e.SensorID, e.ObservedAt.Format(time.RFC3339))
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		blob, err := sqlite_vec.SerializeFloat32(e.Embedding)
		if err != nil {
			return errors.Wrapf(err, "failed to serialize embedding %s", e.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID,
			e.RoomID,
			e.SensorID,
			e.ObservedAt.UTC().Format(time.RFC3339),
			e.Text,
			x.model,
			len(e.Embedding),
			blob,
		); err != nil {
			return errors.Wrapf(err, "failed to save embedding %s for %s", e.ID, e.SensorID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit %d embeddings", len(entries))
	}

	x.log.Debugw("Saved embeddings", logger.FieldCount, len(entries), "model", x.model)
	return nil
}

// Count returns the number of entries stored for this index's model
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := x.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reading_embeddings WHERE model = ?`, x.model).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count embeddings")
	}
	return n, nil
}

// Search returns up to limit entries closest to embedding whose similarity
// is at least threshold, nearest first
func (x *Index) Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]Hit, error) {
	if len(embedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}
	if limit <= 0 {
		limit = 10
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize query embedding")
	}

	// Restricting to the query's dimensions keeps vec_distance_L2 from
	// failing on rows embedded at another size
	rows, err := x.db.QueryContext(ctx, `
		SELECT id, room_id, sensor_id, observed_at, text,
		       vec_distance_L2(embedding, ?) AS distance
		FROM reading_embeddings
		WHERE model = ? AND dimensions = ?
		ORDER BY distance
		LIMIT ?
	`, blob, x.model, len(embedding), limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to perform semantic search (limit=%d, threshold=%.2f)", limit, threshold)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var observed string
		if err := rows.Scan(&h.ID, &h.RoomID, &h.SensorID, &observed, &h.Text, &h.Distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan search result at row %d", len(hits)+1)
		}
		h.ObservedAt, _ = time.Parse(time.RFC3339, observed)

		h.Similarity = 1.0 - h.Distance/2.0
		if h.Similarity < 0 {
			h.Similarity = 0
		}
		if h.Similarity >= threshold {
			hits = append(hits, h)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to iterate search results (scanned %d rows)", len(hits))
	}

	x.log.Debugw("Semantic search completed",
		logger.FieldCount, len(hits),
		"limit", limit,
		"threshold", threshold)
	return hits, nil
}
