package limit

import (
	"context"
	"sync"
)

// Limit runs jobs with at most n in flight and collects their errors.
type Limit struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu   sync.Mutex
	errs []error
}

func NewLimit(n int) *Limit {
	if n <= 0 {
		n = 1
	}
	return &Limit{slots: make(chan struct{}, n)}
}

// Go blocks until a slot is free, then runs f in its own goroutine. If
// ctx is done first, f is skipped and ctx.Err() is recorded.
func (l *Limit) Go(ctx context.Context, f func(ctx context.Context) error) {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		l.error(ctx.Err())
		return
	}
	l.wg.Add(1)
	go func() {
		defer func() {
			<-l.slots
			l.wg.Done()
		}()
		if err := f(ctx); err != nil {
			l.error(err)
		}
	}()
}

func (l *Limit) error(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

// Wait blocks until every started job returned and reports their errors.
func (l *Limit) Wait() []error {
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}
