// Package deadline bounds calls to external collaborators.
//
// Run executes fn in its own goroutine and stops waiting once the timeout
// elapses, even when fn never looks at its context. A collaborator that hangs
// therefore costs at most the configured timeout, and the caller can move on
// to its next fallback.
package deadline

import (
	"context"
	"time"

	"github.com/teranos/roomq/errors"
)

type result[T any] struct {
	val T
	err error
}

// Run calls fn with a context bounded by timeout. When fn does not return in
// time the result is errors.ErrTimeout wrapped with name; fn keeps running in
// the background until it notices the cancelled context. A timeout <= 0 means
// no bound beyond ctx itself.
func Run[T any](ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, errors.Wrapf(err, "%s: not started", name)
	}

	callCtx, cancel := context.WithCancel(ctx)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	// Buffered so the goroutine can always deliver and exit
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: errors.Newf("%s panicked: %v", name, r)}
			}
		}()
		val, err := fn(callCtx)
		done <- result[T]{val: val, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && callCtx.Err() == context.DeadlineExceeded {
			return zero, errors.Wrapf(errors.ErrTimeout, "%s after %s: %v", name, timeout, r.err)
		}
		return r.val, r.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return zero, errors.Wrapf(ctx.Err(), "%s cancelled", name)
		}
		return zero, errors.Wrapf(errors.ErrTimeout, "%s after %s", name, timeout)
	}
}

// Do is Run for calls that only return an error.
func Do(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, name, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
