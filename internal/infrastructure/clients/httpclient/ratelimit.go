package httpclient

import (
	"context"
	"sync"
	"time"
)

// TokenBucket limits request starts to a per-minute rate with a small burst
type TokenBucket struct {
	tokens chan struct{}
	stop   chan struct{}
	once   sync.Once
}

// NewTokenBucket returns nil when rpm is not positive, which disables limiting
func NewTokenBucket(rpm, burst int) *TokenBucket {
	if rpm <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}

	bucket := &TokenBucket{
		tokens: make(chan struct{}, burst),
		stop:   make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-bucket.stop:
				return
			case <-ticker.C:
				select {
				case bucket.tokens <- struct{}{}:
				default:
				}
			}
		}
	}()

	return bucket
}

// Wait blocks until a token is available or ctx is done
func (b *TokenBucket) Wait(ctx context.Context) error {
	if b == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

// Stop releases the refill goroutine
func (b *TokenBucket) Stop() {
	if b == nil {
		return
	}
	b.once.Do(func() { close(b.stop) })
}
