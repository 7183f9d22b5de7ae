package controller

import (
	"context"
	"sync"
)

type event struct {
	fn  func()
	ran chan struct{}
}

// tracker counts work that has not reached the event loop yet.
type tracker struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func newTracker() *tracker {
	t := &tracker{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *tracker) add() {
	t.mu.Lock()
	t.n++
	t.mu.Unlock()
}

func (t *tracker) done() {
	t.mu.Lock()
	t.n--
	if t.n <= 0 {
		t.n = 0
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

func (t *tracker) wait() {
	t.mu.Lock()
	for t.n > 0 {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

// Run processes events until ctx is done. All state and view changes happen
// on the goroutine running Run; the view is drawn after every event.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			if c.debouncer.Cancel() {
				c.pending.done()
			}
			return ctx.Err()
		case ev := <-c.events:
			ev.fn()
			c.draw()
			if ev.ran != nil {
				close(ev.ran)
			}
			c.pending.done()
		}
	}
}

// Wait blocks until no event, request or debounced search is outstanding.
func (c *Controller) Wait() {
	c.pending.wait()
}

func (c *Controller) post(ev event) bool {
	c.pending.add()

	select {
	case c.events <- ev:
		return true
	case <-c.done:
		c.pending.done()
		return false
	}
}

// dispatch runs fn on the loop and returns once it has run and the view has
// been drawn.
func (c *Controller) dispatch(fn func()) {
	ev := event{fn: fn, ran: make(chan struct{})}
	if !c.post(ev) {
		return
	}

	select {
	case <-ev.ran:
	case <-c.done:
	}
}

// async runs work off the loop and applies the function it returns on the
// loop.
func (c *Controller) async(work func(ctx context.Context) func()) {
	c.pending.add()
	ctx := c.ctx

	go func() {
		defer c.pending.done()
		apply := work(ctx)
		c.post(event{fn: apply})
	}()
}
