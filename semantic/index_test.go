package semantic

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockIndex(t *testing.T) (*Index, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewIndex(db, "text-embedding-3-small", nil), mock
}

func TestIndex_SaveBatch(t *testing.T) {
	idx, mock := newMockIndex(t)
	at := time.Date(2024, 1, 1, 8, 5, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO reading_embeddings")
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "101", "OCC_101", "2024-01-01T08:05:00Z", "room 101 occupancy", "text-embedding-3-small", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("fixed-id", "101", "TEMP_101", "2024-01-01T08:05:00Z", "room 101 temperature", "text-embedding-3-small", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	entries := []*Entry{
		{RoomID: "101", SensorID: "OCC_101", ObservedAt: at, Text: "room 101 occupancy", Embedding: []float32{1, 0, 0}},
		{ID: "fixed-id", RoomID: "101", SensorID: "TEMP_101", ObservedAt: at, Text: "room 101 temperature", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, idx.SaveBatch(context.Background(), entries))
	assert.NotEmpty(t, entries[0].ID, "missing ids are generated")
	assert.Equal(t, "fixed-id", entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_SaveBatch_RejectsEmptyEmbedding(t *testing.T) {
	idx, mock := newMockIndex(t)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO reading_embeddings")
	mock.ExpectRollback()

	err := idx.Save(context.Background(), &Entry{SensorID: "OCC_101"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_SaveBatch_Empty(t *testing.T) {
	idx, mock := newMockIndex(t)
	assert.NoError(t, idx.SaveBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Count(t *testing.T) {
	idx, mock := newMockIndex(t)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("text-embedding-3-small").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestIndex_Search_SimilarityAndThreshold(t *testing.T) {
	idx, mock := newMockIndex(t)

	rows := sqlmock.NewRows([]string{"id", "room_id", "sensor_id", "observed_at", "text", "distance"}).
		AddRow("a", "101", "TEMP_101", "2024-01-01T14:05:00Z", "room 101 temperature sensor TEMP_101 reported 27.30", 0.2).
		AddRow("b", "102", "TEMP_102", "2024-01-01T14:05:00Z", "room 102 temperature sensor TEMP_102 reported 22.10", 0.8).
		AddRow("c", "103", "TEMP_103", "2024-01-01T14:05:00Z", "room 103 temperature sensor TEMP_103 reported 21.00", 2.4)
	mock.ExpectQuery("vec_distance_L2").
		WithArgs(sqlmock.AnyArg(), "text-embedding-3-small", 3, 5).
		WillReturnRows(rows)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5, 0.5)
	require.NoError(t, err)

	// 0.2 → 0.9, 0.8 → 0.6, 2.4 → clamped to 0 and filtered
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 0.9, hits[0].Similarity, 1e-9)
	assert.InDelta(t, 0.6, hits[1].Similarity, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 1, 14, 5, 0, 0, time.UTC), hits[0].ObservedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Search_EmptyEmbedding(t *testing.T) {
	idx, _ := newMockIndex(t)
	_, err := idx.Search(context.Background(), nil, 5, 0)
	assert.Error(t, err)
}
