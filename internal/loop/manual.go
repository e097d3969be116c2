package loop

import (
	"container/heap"
	"sync"
	"time"
)

// Manual is a virtual-time Scheduler. Nothing runs until Advance is called,
// which makes timer-driven behavior deterministic in tests.
//
// Work handed to Go runs on its own goroutine right away, like on a Loop.
// Its completions are held until Flush or Advance, which first wait for all
// outstanding work.
type Manual struct {
	now     time.Time
	seq     uint64
	pending timerHeap

	wg       sync.WaitGroup
	mu       sync.Mutex
	finished []func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	heap.Push(&m.pending, t)
	return t
}

func (m *Manual) Go(work func() func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if done := work(); done != nil {
			m.mu.Lock()
			m.finished = append(m.finished, done)
			m.mu.Unlock()
		}
	}()
}

// Flush waits for background work and runs its completions without moving
// the clock. Completions that start more work are waited for as well.
func (m *Manual) Flush() {
	for {
		m.wg.Wait()

		m.mu.Lock()
		batch := m.finished
		m.finished = nil
		m.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way in (deadline, registration) order. Callbacks scheduled by
// other callbacks run too when they are due before the new time. Background
// work is flushed before each timer.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		m.Flush()
		if m.pending.Len() == 0 {
			break
		}
		next := m.pending[0]
		if next.at.After(target) {
			break
		}
		heap.Pop(&m.pending)
		if next.stopped {
			continue
		}
		if next.at.After(m.now) {
			m.now = next.at
		}
		next.fired = true
		next.fn()
	}
	m.now = target
}

// Pending counts timers that are still armed.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

type manualTimer struct {
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*manualTimer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
