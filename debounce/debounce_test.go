package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) fn(v string) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, v)
	}
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestCallRunsLastAfterQuietPeriod(t *testing.T) {
	d := New(30 * time.Millisecond)
	r := &recorder{}

	for _, v := range []string{"M", "Mo", "Mos"} {
		d.Call(r.fn(v))
		time.Sleep(5 * time.Millisecond)
	}

	if got := r.got(); len(got) != 0 {
		t.Fatalf("ran before quiet period: %v", got)
	}

	time.Sleep(100 * time.Millisecond)

	if got := r.got(); len(got) != 1 || got[0] != "Mos" {
		t.Fatalf("calls = %v, want [Mos]", got)
	}
}

func TestCancel(t *testing.T) {
	d := New(20 * time.Millisecond)
	r := &recorder{}

	d.Call(r.fn("Kaz"))
	if !d.Cancel() {
		t.Fatal("Cancel should report a pending call")
	}
	if d.Cancel() {
		t.Fatal("second Cancel should find nothing")
	}

	time.Sleep(60 * time.Millisecond)
	if got := r.got(); len(got) != 0 {
		t.Fatalf("cancelled call ran: %v", got)
	}
}
