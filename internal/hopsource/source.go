// Package hopsource produces ordered hop sequences for a trace target.
// The engine only sees the Source interface; the shipped implementation
// is a deterministic mock backed by a built-in path catalog plus an
// optional YAML catalog file. A live probe slots in behind the same
// interface without touching the engine.
package hopsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
)

// Source resolves a target into its ordered hop sequence. The full
// sequence is returned in one call; the engine paces the reveal, not
// the source.
type Source interface {
	FetchHops(ctx context.Context, target string) ([]hop.Hop, error)
}

var (
	// ErrEmptyTarget means the trace request carried no target.
	ErrEmptyTarget = errors.New("hopsource: empty target")

	// ErrTimeout means the source did not produce a hop sequence
	// within the configured deadline.
	ErrTimeout = errors.New("hopsource: fetch timed out")
)

// timeoutSource enforces a deadline on an underlying source.
type timeoutSource struct {
	inner   Source
	timeout time.Duration
}

// WithTimeout wraps a source so every fetch runs under the given
// deadline. A zero or negative timeout returns the source unchanged.
func WithTimeout(s Source, timeout time.Duration) Source {
	if timeout <= 0 {
		return s
	}
	return &timeoutSource{inner: s, timeout: timeout}
}

func (t *timeoutSource) FetchHops(ctx context.Context, target string) ([]hop.Hop, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	hops, err := t.inner.FetchHops(ctx, target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return nil, err
	}
	return hops, nil
}
