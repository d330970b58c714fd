package api

import (
	"context"
	"errors"
	"time"

	"github.com/youruser/certgen/internal/metrics"
)

// ErrRenderTimeout is returned when a render outlives the configured
// render timeout.
var ErrRenderTimeout = errors.New("rendering took too long, please try again")

// renderWithin runs fn and stops waiting for it once ctx ends or timeout
// passes. fn keeps running in the background; its result is dropped. A
// zero timeout only follows ctx.
func renderWithin[T any](ctx context.Context, path string, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.RenderTimeouts.WithLabelValues(path).Inc()
			return zero, ErrRenderTimeout
		}
		return zero, ctx.Err()
	}
}
