package sched

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Queue is a cooperative work queue. Handlers run one at a time, to
// completion, on the goroutine that drives the queue (Run or Advance).
// Handlers must not block.
type Queue struct {
	mu    sync.Mutex
	clock Clock
	h     workHeap
	seq   uint64
	wake  chan struct{}
}

// Work is a delayable work item bound to one queue. At most one arm of a
// given Work is outstanding: Reschedule replaces any pending arm.
type Work struct {
	q     *Queue
	name  string
	fn    func()
	due   int64
	seq   uint64
	index int // heap index, -1 when idle
}

func New(clock Clock) *Queue {
	if clock == nil {
		clock = WallClock
	}
	return &Queue{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

func (q *Queue) Now() time.Time { return q.clock.Now() }

// NewWork creates an idle work item that runs fn when due.
func (q *Queue) NewWork(name string, fn func()) *Work {
	return &Work{q: q, name: name, fn: fn, index: -1}
}

func (w *Work) Name() string { return w.name }

// Reschedule arms w to run after d, replacing any pending arm.
// A negative d is treated as zero.
func (w *Work) Reschedule(d time.Duration) {
	if d < 0 {
		d = 0
	}
	q := w.q
	q.mu.Lock()
	q.seq++
	w.seq = q.seq
	w.due = q.clock.Now().Add(d).UnixNano()
	if w.index >= 0 {
		heap.Fix(&q.h, w.index)
	} else {
		heap.Push(&q.h, w)
	}
	q.mu.Unlock()
	q.wakeup()
}

// Cancel disarms w. It reports whether an arm was pending; cancelling an
// idle, fired or already cancelled item is a no-op.
func (w *Work) Cancel() bool {
	q := w.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if w.index < 0 {
		return false
	}
	heap.Remove(&q.h, w.index)
	return true
}

// Pending reports whether w is armed.
func (w *Work) Pending() bool {
	w.q.mu.Lock()
	defer w.q.mu.Unlock()
	return w.index >= 0
}

// Len returns the number of armed items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Run dispatches due work in real time until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := q.nextWait()
		if wait < 0 {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}
		if wait == 0 {
			if w := q.popDue(q.clock.Now().UnixNano()); w != nil {
				w.fn()
			}
			continue
		}

		resetTimer(timer, time.Duration(wait))
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// Advance moves clk forward by d, running every item that falls due on the
// way in due order. The clock is set to each item's due time before its
// handler runs, so re-arms inside handlers are exact. It returns the number
// of handlers run.
func (q *Queue) Advance(clk *ManualClock, d time.Duration) int {
	target := clk.Now().Add(d)
	n := 0
	for {
		w := q.popDue(target.UnixNano())
		if w == nil {
			break
		}
		clk.set(time.Unix(0, w.due))
		w.fn()
		n++
	}
	clk.set(target)
	return n
}

func (q *Queue) popDue(now int64) *Work {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 || q.h[0].due > now {
		return nil
	}
	return heap.Pop(&q.h).(*Work)
}

func (q *Queue) nextWait() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return -1
	}
	now := q.clock.Now().UnixNano()
	if q.h[0].due <= now {
		return 0
	}
	return q.h[0].due - now
}

func (q *Queue) wakeup() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// resetTimer safely stops, drains, and resets a timer.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// ---- heap ----

type workHeap []*Work

func (h workHeap) Len() int { return len(h) }
func (h workHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h workHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *workHeap) Push(x any)   { w := x.(*Work); w.index = len(*h); *h = append(*h, w) }
func (h *workHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*h = old[:n-1]
	return w
}
