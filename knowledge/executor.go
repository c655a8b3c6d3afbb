package knowledge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/deadline"
	"github.com/teranos/roomq/logger"
)

// Query is a Cypher statement with its parameters
type Query struct {
	Text   string         `json:"text"`
	Params map[string]any `json:"params,omitempty"`
}

// Executor runs guarded, time-bounded queries. Every failure leaving
// Execute is errors.ErrReadOnlyViolation or errors.ErrQueryExecution.
type Executor struct {
	client  Client
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewExecutor creates an Executor. timeout bounds each call to the store.
func NewExecutor(client Client, timeout time.Duration, log *zap.SugaredLogger) *Executor {
	return &Executor{client: client, timeout: timeout, log: logger.OrNop(log)}
}

// Execute checks q is read-only, then runs it
func (e *Executor) Execute(ctx context.Context, q Query) ([]Row, error) {
	if err := CheckReadOnly(q.Text); err != nil {
		return nil, err
	}
	if e.client == nil {
		return nil, errors.WrapAs(errors.ErrQueryExecution, errors.ErrServiceUnavailable, "graph store not configured")
	}

	start := time.Now()
	rows, err := deadline.Run(ctx, "graph query", e.timeout, func(ctx context.Context) ([]Row, error) {
		return e.client.Run(ctx, q.Text, q.Params)
	})
	if err != nil {
		return nil, errors.WrapAs(errors.ErrQueryExecution, err, "graph query failed")
	}

	logger.FromContext(ctx, e.log).Debugw("Graph query",
		logger.FieldQuery, q.Text,
		logger.FieldRows, len(rows),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return rows, nil
}
