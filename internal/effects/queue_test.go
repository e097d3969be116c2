package effects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"reelview/internal/loop"
)

func TestQueue_ExpiresAfterTTL(t *testing.T) {
	sched := loop.NewManual(time.Unix(100, 0))
	q := NewQueue(sched, 1500*time.Millisecond)

	first := q.Spawn(FloatingHeart, "reel1")
	sched.Advance(500 * time.Millisecond)
	second := q.Spawn(FloatingHeart, "reel1")

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, time.Unix(100, 0), first.CreatedAt)
	require.Equal(t, time.Unix(101, 500_000_000), first.ExpiresAt())
	require.Equal(t, 2, q.Len())

	sched.Advance(time.Second)
	live := q.Live()
	require.Len(t, live, 1)
	require.Equal(t, second.ID, live[0].ID)

	sched.Advance(500 * time.Millisecond)
	require.Zero(t, q.Len())
}

func TestQueue_DefaultTTL(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	q := NewQueue(sched, 0)

	e := q.Spawn(FloatingHeart, "reel2")
	require.Equal(t, DefaultTTL, e.TTL)
}

func TestQueue_Clear(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	q := NewQueue(sched, time.Second)
	q.Spawn(FloatingHeart, "reel1")
	q.Spawn(FloatingHeart, "reel2")

	q.Clear()
	require.Zero(t, q.Len())
	require.Zero(t, sched.Pending())
}
