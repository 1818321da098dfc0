package limit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds the rate limiter of one client and the last time it was
// seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	visitors map[string]*visitor
	r        rate.Limit
	b        int
	mtx      sync.Mutex

	timeout time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter returns a limiter allowing r requests per second with
// burst b to every client. Idle clients are forgotten after timeout.
func NewRateLimiter(r rate.Limit, b int, timeout time.Duration) *RateLimiter {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		r:        r,
		b:        b,
		timeout:  timeout,
		stop:     make(chan struct{}),
	}
	go rl.cleanupVisitors()
	return rl
}

// Allow reports whether the client may make a request now.
func (r *RateLimiter) Allow(key string) bool {
	return r.getVisitor(key).Allow()
}

func (r *RateLimiter) getVisitor(key string) *rate.Limiter {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	v, exists := r.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(r.r, r.b)}
		r.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Len returns the number of tracked clients.
func (r *RateLimiter) Len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.visitors)
}

// Stop ends the cleanup goroutine.
func (r *RateLimiter) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *RateLimiter) cleanup(now time.Time) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.timeout {
			delete(r.visitors, key)
		}
	}
}

// Every minute drop visitors not seen within the timeout.
func (r *RateLimiter) cleanupVisitors() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case now := <-tick.C:
			r.cleanup(now)
		case <-r.stop:
			return
		}
	}
}
