package ratelimit

import (
	"context"
	"time"
)

// Options configura uma janela fixa.
type Options struct {
	MaxRequests int
	Window      time.Duration
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// Limiter é consultivo: se Check devolver erro, quem chama deixa a requisição passar.
type Limiter interface {
	Check(ctx context.Context, key string, opts Options) (Result, error)
}

func remaining(max, count int) int {
	if count >= max {
		return 0
	}
	return max - count
}
