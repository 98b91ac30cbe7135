// Package memory holds map-backed repositories used by tests and by the
// single-binary demo mode. Every repository is safe for concurrent use.
package memory

import (
	"context"
	"sync"
	"time"
)

// Transactor serializes transactional sections. Memory repositories apply writes
// immediately, so a failing fn does not roll anything back.
type Transactor struct {
	mu sync.Mutex
}

func NewTransactor() *Transactor { return &Transactor{} }

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

func within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
