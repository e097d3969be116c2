package effects

import (
	"time"

	"github.com/google/uuid"
	"reelview/internal/loop"
)

const DefaultTTL = 1500 * time.Millisecond

type Kind string

const (
	FloatingHeart Kind = "floating_heart"
)

// Effect is a short-lived visual artifact with no meaning beyond its
// lifetime.
type Effect struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	ItemID    string        `json:"item_id"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

func (e Effect) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// Queue keeps live effects in creation order and drops each one when its
// TTL runs out.
type Queue struct {
	sched  loop.Scheduler
	ttl    time.Duration
	live   []Effect
	timers map[string]loop.Timer
}

func NewQueue(sched loop.Scheduler, ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		sched:  sched,
		ttl:    ttl,
		timers: make(map[string]loop.Timer),
	}
}

func (q *Queue) Spawn(kind Kind, itemID string) Effect {
	e := Effect{
		ID:        uuid.NewString(),
		Kind:      kind,
		ItemID:    itemID,
		CreatedAt: q.sched.Now(),
		TTL:       q.ttl,
	}
	q.live = append(q.live, e)
	q.timers[e.ID] = q.sched.AfterFunc(q.ttl, func() { q.remove(e.ID) })
	return e
}

func (q *Queue) Live() []Effect {
	return append([]Effect(nil), q.live...)
}

func (q *Queue) Len() int {
	return len(q.live)
}

// Clear drops every effect and its pending expiry.
func (q *Queue) Clear() {
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.live = nil
}

func (q *Queue) remove(id string) {
	delete(q.timers, id)
	for i, e := range q.live {
		if e.ID == id {
			q.live = append(q.live[:i], q.live[i+1:]...)
			return
		}
	}
}
