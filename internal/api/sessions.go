package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"reelview/internal/feed"
	"reelview/internal/loop"
	"reelview/internal/metrics"
	"reelview/internal/reels"
)

// SessionStore keeps open sessions in an LRU with idle expiry. Evicted
// sessions are closed on the loop.
type SessionStore struct {
	loop    *loop.Loop
	source  feed.Source
	opts    reels.Options
	base    zerolog.Logger
	logger  zerolog.Logger
	metrics *metrics.Metrics
	cache   *expirable.LRU[string, *reels.Session]
}

func NewSessionStore(lp *loop.Loop, source feed.Source, opts reels.Options, size int, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *SessionStore {
	st := &SessionStore{
		loop:    lp,
		source:  source,
		opts:    opts,
		base:    logger,
		logger:  logger.With().Str("component", "sessions").Logger(),
		metrics: m,
	}
	st.cache = expirable.NewLRU[string, *reels.Session](size, st.evicted, ttl)
	return st
}

func (st *SessionStore) evicted(id string, s *reels.Session) {
	st.logger.Debug().Str("session", id).Msg("session evicted")
	st.loop.Post(s.Close)
}

// Create opens a session and starts loading its first page.
func (st *SessionStore) Create(ctx context.Context) (*reels.Session, error) {
	id := uuid.NewString()

	var s *reels.Session
	err := st.loop.Do(ctx, func() {
		s = reels.New(id, st.source, st.loop, st.opts, st.base, st.metrics)
		s.Start()
	})
	if err != nil {
		return nil, err
	}

	st.cache.Add(id, s)
	st.metrics.SetSessions(st.cache.Len())
	st.logger.Info().Str("session", id).Msg("session created")
	return s, nil
}

// Get returns a live session and renews its idle deadline.
func (st *SessionStore) Get(id string) (*reels.Session, bool) {
	s, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	st.cache.Add(id, s)
	return s, true
}

func (st *SessionStore) Remove(id string) bool {
	ok := st.cache.Remove(id)
	st.metrics.SetSessions(st.cache.Len())
	return ok
}

func (st *SessionStore) Len() int {
	return st.cache.Len()
}

// CloseAll evicts every session.
func (st *SessionStore) CloseAll() {
	st.cache.Purge()
	st.metrics.SetSessions(0)
}
