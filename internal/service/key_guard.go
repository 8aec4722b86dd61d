package service

import (
	"context"
	"sync"
)

// ExportedKeyGuard is an exported alias so _test packages can test the guard.
type ExportedKeyGuard = keyGuard

// ─────────────────────────────────────────────────────────────
// keyGuard: at most one save in flight per key
// ─────────────────────────────────────────────────────────────

// keyGuard ensures only one holder of a given key at a time. Sessions are
// keyed by session key; the autosave tick holds its own key so slow stores
// never stack up overlapping runs.
type keyGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
	idle chan struct{} // closed when the last held key is released
}

// TryLock marks key as held. It returns false if the key is already held.
func (g *keyGuard) TryLock(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held == nil {
		g.held = make(map[string]struct{})
	}
	if _, ok := g.held[key]; ok {
		return false
	}
	if len(g.held) == 0 {
		g.idle = make(chan struct{})
	}
	g.held[key] = struct{}{}
	return true
}

// Unlock releases key. Must be called after TryLock returns true.
func (g *keyGuard) Unlock(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; !ok {
		return
	}
	delete(g.held, key)
	if len(g.held) == 0 {
		close(g.idle)
	}
}

// WaitAll blocks until every held key is released or ctx is cancelled.
func (g *keyGuard) WaitAll(ctx context.Context) {
	g.mu.Lock()
	idle := g.idle
	busy := len(g.held) > 0
	g.mu.Unlock()
	if !busy {
		return
	}
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
