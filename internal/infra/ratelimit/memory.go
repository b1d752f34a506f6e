package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter mantém as janelas na memória do processo. Os contadores zeram no restart e
// não são compartilhados entre instâncias.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

func NewMemoryLimiter(cleanupEvery time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if cleanupEvery > 0 {
		go rl.cleanup(cleanupEvery)
	}
	return rl
}

func (rl *MemoryLimiter) Check(_ context.Context, key string, opts Options) (Result, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]

	if !exists || now.Sub(v.windowStart) >= opts.Window {
		v = &visitor{count: 0, windowStart: now, window: opts.Window}
		rl.visitors[key] = v
	}

	v.count++

	return Result{
		Allowed:   v.count <= opts.MaxRequests,
		Limit:     opts.MaxRequests,
		Remaining: remaining(opts.MaxRequests, v.count),
		ResetTime: v.windowStart.Add(opts.Window),
	}, nil
}

// Stop encerra a goroutine de limpeza.
func (rl *MemoryLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *MemoryLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *MemoryLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, v := range rl.visitors {
		if now.Sub(v.windowStart) > v.window*2 {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}
