package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/apperr"
)

// updateWithRetry runs load, mutate and store until store succeeds or
// attempts version conflicts have been seen. mutate receives a fresh copy on
// every attempt.
func updateWithRetry[T any](
	ctx context.Context,
	attempts int,
	kind, id string,
	load func(context.Context, string) (*T, error),
	mutate func(*T) error,
	store func(context.Context, T) error,
) (*T, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, err := load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		if current == nil {
			return nil, apperr.New(apperr.CodeNotFound, "%s not found", kind)
		}
		if err := mutate(current); err != nil {
			return nil, err
		}
		err = store(ctx, *current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, domain.ErrOptimisticLock) {
			return nil, fmt.Errorf("store %s: %w", kind, err)
		}
		lastErr = err
	}
	return nil, apperr.Wrap(apperr.CodeConflict, lastErr, "%s %s was modified concurrently, retry the request", kind, id)
}
