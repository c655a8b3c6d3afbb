package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	base := New("base")
	wrapped := Wrap(base, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "base")
	assert.True(t, Is(wrapped, base))
}

func TestWrapAs(t *testing.T) {
	t.Run("marks with sentinel and keeps message", func(t *testing.T) {
		storeErr := fmt.Errorf("Neo.ClientError.Statement.SyntaxError: invalid input")
		err := WrapAs(ErrQueryExecution, storeErr, "execute query")

		assert.True(t, Is(err, ErrQueryExecution))
		assert.False(t, Is(err, ErrRetrieval))
		assert.Contains(t, err.Error(), "execute query")
		assert.Contains(t, err.Error(), "SyntaxError")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapAs(ErrRetrieval, nil, "retrieve"))
	})

	t.Run("timeouts stay timeouts", func(t *testing.T) {
		err := WrapAs(ErrRetrieval, Wrap(ErrTimeout, "vector index"), "retrieve")
		assert.True(t, Is(err, ErrRetrieval))
		assert.True(t, IsTimeoutError(err))
	})
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(NewNotFoundError("room %s", "999")))
	assert.True(t, IsNotFoundError(Wrap(ErrNotFound, "context")))
	assert.False(t, IsNotFoundError(New("something else")))

	err := NewNotFoundError("room %s", "999")
	assert.Contains(t, err.Error(), "room 999")
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrDataLoad, "check timeseries.dir in am.toml")
	assert.True(t, Is(err, ErrDataLoad))
	assert.Contains(t, FlattenHints(err), "timeseries.dir")
}

func TestStageError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout wins over its wrapper", WrapAs(ErrQueryExecution, Wrap(ErrTimeout, "graph"), "execute"), "structured_query [operation timed out]: "},
		{"query execution", WrapAs(ErrQueryExecution, New("SyntaxError"), "execute"), "structured_query [query execution error]: "},
		{"unmarked", New("boom"), "structured_query [error]: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, StageError("structured_query", tt.err), tt.want)
		})
	}
	assert.Empty(t, StageError("structured_query", nil))
	assert.Equal(t, "retrieval error", KindOf(Wrap(ErrRetrieval, "vector index")))
}
