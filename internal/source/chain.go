// Package source resolves reads against an ordered list of data sources.
package source

import (
	"context"
	"errors"
	"log/slog"
)

var ErrExhausted = errors.New("no source yielded a result")

// Attempt is one named source in a fallback chain. A nil Fetch is skipped,
// which is how an unconfigured backend drops out of the chain.
type Attempt[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// First tries attempts in order and returns the first result that is neither
// an error nor empty, along with the name of the source that produced it.
// Failed and empty attempts are logged and skipped.
func First[T any](ctx context.Context, logger *slog.Logger, empty func(T) bool, attempts ...Attempt[T]) (T, string, error) {
	var zero T

	for _, a := range attempts {
		if a.Fetch == nil {
			continue
		}

		result, err := a.Fetch(ctx)
		if err != nil {
			logger.Warn("source failed, falling back",
				"source", a.Name,
				"error", err,
			)
			continue
		}

		if empty != nil && empty(result) {
			logger.Debug("source returned no results", "source", a.Name)
			continue
		}

		return result, a.Name, nil
	}

	return zero, "", ErrExhausted
}
