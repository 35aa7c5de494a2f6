// Copyright © 2025 The agnix authors

package lsp

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// forEachBounded runs fn over items with at most limit goroutines in
// flight. A limit of 0 is clamped to 1 rather than deadlocking. Worker
// panics are collected and returned but never propagated, so a failure
// on one item cannot take down the event loop.
func forEachBounded[T any](items []T, limit int, fn func(T)) []any {
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	var panics []any

	for _, item := range items {
		// Acquire cannot fail on a background context.
		_ = sem.Acquire(ctx, 1)
		wg.Add(1)
		go func(it T) {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					panics = append(panics, r)
					mu.Unlock()
				}
				sem.Release(1)
				wg.Done()
			}()
			fn(it)
		}(item)
	}
	wg.Wait()
	return panics
}
