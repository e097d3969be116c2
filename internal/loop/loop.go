package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Do once the loop has stopped.
var ErrClosed = errors.New("loop closed")

// Scheduler is the time source every engine component uses. Callbacks
// registered through AfterFunc always run on the loop goroutine.
//
// Go runs work off the loop. The function work returns, if any, is then run
// back on the loop. Blocking calls such as remote fetches go through Go.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Go(work func() func())
}

// Timer is a pending callback. Stop reports whether it prevented the call.
type Timer interface {
	Stop() bool
}

// Loop serializes all engine work onto a single goroutine, the way a UI
// thread does for a mobile client.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post enqueues fn. Tasks posted after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
	case l.tasks <- fn:
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	case l.tasks <- task:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	case <-finished:
		return nil
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

func (l *Loop) Go(work func() func()) {
	go func() {
		if done := work(); done != nil {
			l.Post(done)
		}
	}()
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

// Stop also suppresses a callback that already fired but is still queued.
func (t *loopTimer) Stop() bool {
	wasStopped := t.stopped.Swap(true)
	t.timer.Stop()
	return !wasStopped
}
