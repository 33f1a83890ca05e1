package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned while a provider is cooling down.
var ErrBreakerOpen = eris.New("resilience: provider breaker is open")

// Breaker stops calling a provider after Threshold consecutive failures.
// Once Cooldown has elapsed a single probe call is let through; success
// closes the breaker and failure restarts the cooldown.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker returns a breaker for the named provider. A threshold of zero
// or less yields a breaker that never opens.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isOpen() && b.now().Sub(b.openedAt) < b.cooldown
}

func (b *Breaker) isOpen() bool {
	return b.threshold > 0 && b.failures >= b.threshold
}

func (b *Breaker) allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isOpen() {
		return nil
	}
	if b.probing || b.now().Sub(b.openedAt) < b.cooldown {
		return ErrBreakerOpen
	}
	b.probing = true
	return nil
}

func (b *Breaker) record(err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	wasOpen := b.isOpen()
	b.probing = false
	if err == nil {
		if wasOpen {
			zap.L().Info("provider breaker closed", zap.String("provider", b.name))
		}
		b.failures = 0
		return
	}
	b.failures++
	if b.isOpen() {
		b.openedAt = b.now()
		if !wasOpen {
			zap.L().Warn("provider breaker opened",
				zap.String("provider", b.name),
				zap.Int("failures", b.failures),
				zap.Duration("cooldown", b.cooldown),
			)
		}
	}
}

// Guard runs fn through the breaker. A nil breaker always calls fn.
func Guard[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		// Cancelled calls do not count against the provider.
		b.release()
		return zero, err
	}
	b.record(err)
	return val, err
}

func (b *Breaker) release() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}
