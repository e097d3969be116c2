package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManual_AdvanceRunsInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string

	m.AfterFunc(20*time.Millisecond, func() { got = append(got, "b") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(20*time.Millisecond, func() { got = append(got, "c") })

	m.Advance(15 * time.Millisecond)
	require.Equal(t, []string{"a"}, got)

	m.Advance(5 * time.Millisecond)
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, time.Unix(0, 0).Add(20*time.Millisecond), m.Now())
}

func TestManual_StopPreventsCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	called := false
	timer := m.AfterFunc(time.Second, func() { called = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())
	require.Equal(t, 0, m.Pending())

	m.Advance(2 * time.Second)
	require.False(t, called)
}

func TestManual_NestedTimersDueWithinAdvance(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var at []time.Duration
	start := m.Now()

	m.AfterFunc(10*time.Millisecond, func() {
		at = append(at, m.Now().Sub(start))
		m.AfterFunc(10*time.Millisecond, func() {
			at = append(at, m.Now().Sub(start))
		})
	})

	m.Advance(25 * time.Millisecond)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, at)
}

func TestLoop_DoRunsOnLoop(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	counter := 0
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Do(ctx, func() { counter++ }))
	}
	require.Equal(t, 10, counter)
}

func TestLoop_AfterFuncPostsToLoop(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer callback never ran")
	}
}

func TestLoop_DoAfterStop(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := l.Do(context.Background(), func() {})
	require.ErrorIs(t, err, ErrClosed)
}

func TestManual_GoCompletesOnFlush(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	release := make(chan struct{})
	var got []string

	m.Go(func() func() {
		<-release
		return func() { got = append(got, "done") }
	})
	require.Empty(t, got)

	close(release)
	m.Flush()
	require.Equal(t, []string{"done"}, got)
	require.Equal(t, time.Unix(0, 0), m.Now())
}

func TestManual_AdvanceFlushesBeforeTimers(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string

	m.Go(func() func() {
		return func() {
			got = append(got, "work")
			m.AfterFunc(10*time.Millisecond, func() { got = append(got, "timer") })
		}
	})

	m.Advance(10 * time.Millisecond)
	require.Equal(t, []string{"work", "timer"}, got)
}

func TestLoop_GoPostsCompletionToLoop(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	release := make(chan struct{})
	done := make(chan int, 1)
	counter := 0

	l.Go(func() func() {
		<-release
		return func() {
			counter++
			done <- counter
		}
	})

	// The loop keeps serving while the work is blocked.
	require.NoError(t, l.Do(ctx, func() { counter += 10 }))

	close(release)
	select {
	case n := <-done:
		require.Equal(t, 11, n)
	case <-time.After(time.Second):
		t.Fatal("completion never ran")
	}
}
