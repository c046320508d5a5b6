package ratelimit

import (
	"math"
	"sync"
	"time"
)

const (
	sweepInterval = 5 * time.Minute
	idleTimeout   = 10 * time.Minute
)

// DefaultErrorMessage is used when Config.ErrorMessage is empty
const DefaultErrorMessage = "Too many requests. Please slow down."

// Config for creating a new rate limiter
type Config struct {
	TokensPerMinute int    // refill rate
	MaxTokens       int    // bucket size; defaults to TokensPerMinute
	ErrorMessage    string // body of rejected requests
}

// Decision is the outcome of one Take.
type Decision struct {
	Allowed bool
	// Limit is the bucket size
	Limit int
	// Remaining counts whole tokens left once this request is accounted for
	Remaining int
	// RetryAfter is how long until one token is available; zero when allowed
	RetryAfter time.Duration
}

// Limiter hands out one token bucket per key (the client IP). Idle buckets
// are dropped by a sweeper goroutine until Stop is called.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	perMin   float64
	capacity float64
	message  string

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// refill credits the tokens earned since the bucket was last seen.
func (b *bucket) refill(now time.Time, perMin, capacity float64) {
	b.tokens = math.Min(capacity, b.tokens+now.Sub(b.seen).Minutes()*perMin)
	b.seen = now
}

// New creates a limiter and starts its sweeper
func New(cfg Config) *Limiter {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = cfg.TokensPerMinute
	}
	if cfg.ErrorMessage == "" {
		cfg.ErrorMessage = DefaultErrorMessage
	}

	l := &Limiter{
		buckets:  make(map[string]*bucket),
		perMin:   float64(cfg.TokensPerMinute),
		capacity: float64(cfg.MaxTokens),
		message:  cfg.ErrorMessage,
		stop:     make(chan struct{}),
	}
	go l.sweep(sweepInterval)
	return l
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.dropIdle(now)
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) dropIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.seen) > idleTimeout {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// ErrorMessage returns the message sent with rejected requests
func (l *Limiter) ErrorMessage() string {
	return l.message
}

// Take spends one token from key's bucket when one is available and reports
// the bucket state either way.
func (l *Limiter) Take(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, seen: now}
		l.buckets[key] = b
	}
	b.refill(now, l.perMin, l.capacity)

	d := Decision{Limit: int(l.capacity)}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	} else if l.perMin > 0 {
		d.RetryAfter = time.Duration((1 - b.tokens) / l.perMin * float64(time.Minute))
	}
	d.Remaining = int(b.tokens)
	return d
}
