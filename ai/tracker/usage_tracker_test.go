package tracker

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/roomq/db"
	roomqtest "github.com/teranos/roomq/internal/testing"
)

func newTracker(t *testing.T) *UsageTracker {
	t.Helper()
	conn := roomqtest.CreateTestDB(t)
	require.NoError(t, db.Migrate(conn, nil))
	return NewUsageTracker(conn)
}

func ptr[T any](v T) *T { return &v }

func TestTrackUsage(t *testing.T) {
	tracker := newTracker(t)

	now := time.Now()
	responseTime := now.Add(2 * time.Second)
	usage := &ModelUsage{
		OperationType:     "classify",
		EntityType:        "question",
		EntityID:          "q-1",
		ModelName:         "openai/gpt-4o-mini",
		ModelProvider:     "openrouter",
		ModelConfig:       NewModelConfig(ptr(0.0), ptr(1000)),
		RequestTimestamp:  now,
		ResponseTimestamp: &responseTime,
		TokensUsed:        ptr(150),
		Cost:              ptr(0.05),
		Success:           true,
	}
	require.NoError(t, tracker.TrackUsage(usage))

	var stored ModelUsage
	err := tracker.db.QueryRow(`
		SELECT operation_type, model_name, tokens_used, cost, success, model_config
		FROM ai_model_usage WHERE id = 1`).Scan(
		&stored.OperationType, &stored.ModelName, &stored.TokensUsed,
		&stored.Cost, &stored.Success, &stored.ModelConfig)
	require.NoError(t, err)

	assert.Equal(t, "classify", stored.OperationType)
	assert.Equal(t, 150, *stored.TokensUsed)
	assert.Equal(t, 0.05, *stored.Cost)
	assert.True(t, stored.Success)
	assert.JSONEq(t, `{"temperature":0,"max_tokens":1000}`, *stored.ModelConfig)
}

func TestGetUsageStats(t *testing.T) {
	tracker := newTracker(t)
	since := time.Now().Add(-time.Hour)

	for i, ok := range []bool{true, true, false} {
		u := &ModelUsage{
			OperationType:    "answer",
			EntityType:       "question",
			EntityID:         "q",
			ModelName:        []string{"m1", "m2", "m1"}[i],
			ModelProvider:    "openrouter",
			RequestTimestamp: time.Now(),
			Success:          ok,
		}
		if ok {
			u.TokensUsed = ptr(100)
			u.Cost = ptr(0.01)
		} else {
			u.ErrorMessage = ptr("timeout")
		}
		require.NoError(t, tracker.TrackUsage(u))
	}

	stats, err := tracker.GetUsageStats(since)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.SuccessfulRequests)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 200, stats.TotalTokens)
	assert.InDelta(t, 0.02, stats.TotalCost, 1e-9)
	assert.Equal(t, 2, stats.UniqueModels)
}

func TestGetUsageStats_Empty(t *testing.T) {
	stats, err := newTracker(t).GetUsageStats(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRequests)
	assert.Zero(t, stats.SuccessRate)
}

func TestGetModelBreakdown(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM ai_model_usage").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{
			"model_name", "model_provider", "operation_type", "request_count", "total_tokens", "total_cost",
		}).
			AddRow("openai/gpt-4o", "openrouter", "translate", 4, 8000, 0.04).
			AddRow("openai/gpt-4o-mini", "openrouter", "classify", 10, 2000, 0.001))

	breakdown, err := NewUsageTracker(conn).GetModelBreakdown(since)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "translate", breakdown[0].OperationType)
	assert.Equal(t, 10, breakdown[1].RequestCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackUsage_DatabaseError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("INSERT INTO ai_model_usage").WillReturnError(assert.AnError)

	err = NewUsageTracker(conn).TrackUsage(&ModelUsage{ModelName: "m", RequestTimestamp: time.Now()})
	assert.Error(t, err)
}

func TestNewModelConfig(t *testing.T) {
	assert.Nil(t, NewModelConfig(nil, nil))
	cfg := NewModelConfig(nil, ptr(50))
	require.NotNil(t, cfg)
	assert.JSONEq(t, `{"max_tokens":50}`, *cfg)
}
