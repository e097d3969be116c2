package reels

import (
	"time"

	"github.com/rs/zerolog"
	"reelview/internal/effects"
	"reelview/internal/feed"
	"reelview/internal/loop"
	"reelview/internal/metrics"
	"reelview/internal/overlay"
	"reelview/internal/playback"
	"reelview/internal/storage"
	"reelview/internal/viewport"
)

const DefaultMaxNotices = 20

type AppState string

const (
	AppActive     AppState = "active"
	AppInactive   AppState = "inactive"
	AppBackground AppState = "background"
)

func (a AppState) Valid() bool {
	switch a {
	case AppActive, AppInactive, AppBackground:
		return true
	}
	return false
}

const (
	NoticeScrollTarget  = "scroll_target_unavailable"
	NoticePlaybackError = "playback_error"
	NoticeFetchError    = "fetch_error"
)

// Notice is a user-facing warning or error kept for the next snapshot.
type Notice struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	ItemID  string    `json:"item_id,omitempty"`
	Message string    `json:"message"`
}

type Options struct {
	Feed       feed.Options
	Viewport   viewport.Options
	EffectTTL  time.Duration
	MaxNotices int
}

// Session is one open reels screen. All methods must run on the loop that
// backs the scheduler.
type Session struct {
	ID        string
	CreatedAt time.Time

	sched   loop.Scheduler
	logger  zerolog.Logger
	metrics *metrics.Metrics

	feed    *feed.Feed
	tracker *viewport.Tracker
	effects *effects.Queue
	overlay *overlay.Table

	controllers map[string]*playback.Controller
	activeID    string
	appState    AppState

	outbox       []Outgoing
	seq          uint64
	onTransition []func(id string, from, to playback.State)
	notices      []Notice
	maxNotices   int
	closed       bool
}

func New(id string, source feed.Source, sched loop.Scheduler, opts Options, logger zerolog.Logger, m *metrics.Metrics) *Session {
	if opts.MaxNotices <= 0 {
		opts.MaxNotices = DefaultMaxNotices
	}

	s := &Session{
		ID:          id,
		CreatedAt:   sched.Now(),
		sched:       sched,
		logger:      logger.With().Str("session", id).Logger(),
		metrics:     m,
		effects:     effects.NewQueue(sched, opts.EffectTTL),
		overlay:     overlay.NewTable(),
		controllers: make(map[string]*playback.Controller),
		appState:    AppActive,
		maxNotices:  opts.MaxNotices,
	}
	s.feed = feed.New(source, sched, opts.Feed, s.logger, m)
	s.tracker = viewport.New(sched, opts.Viewport, s, s.logger, m)

	s.feed.OnUpdate(s.handleFeedUpdate)
	s.tracker.OnActiveChange(func(prev, next int) { s.syncActive() })
	s.tracker.OnWarning(func(err error) { s.notice(NoticeScrollTarget, "", err.Error()) })

	return s
}

// Start loads the first page.
func (s *Session) Start() error {
	if s.closed {
		return ErrClosed
	}
	s.feed.FetchPage(1)
	return nil
}

// Refresh is the pull-to-refresh gesture.
func (s *Session) Refresh() error {
	if s.closed {
		return ErrClosed
	}
	s.feed.Refresh()
	return nil
}

// EndReached is the list scrolling near its tail. It reports whether a fetch
// was started.
func (s *Session) EndReached() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	return s.feed.LoadMore(), nil
}

func (s *Session) ViewableItemsChanged(visible []viewport.Visibility) error {
	if s.closed {
		return ErrClosed
	}
	s.tracker.Observe(visible)
	return nil
}

// OpenDeepLink navigates to the item with the given id. An item that is not
// loaded yields a scroll-target warning and one retry.
func (s *Session) OpenDeepLink(id string) error {
	if s.closed {
		return ErrClosed
	}
	s.logger.Info().Str("item", id).Msg("deep link opened")
	s.tracker.Navigate(func() (int, bool) {
		i := s.feed.IndexOf(id)
		return i, i >= 0
	})
	return nil
}

// SetAppState suspends every mounted controller when the app leaves the
// foreground and resumes them when it returns.
func (s *Session) SetAppState(state AppState) error {
	if s.closed {
		return ErrClosed
	}
	if state == s.appState {
		return nil
	}
	s.logger.Info().Str("from", string(s.appState)).Str("to", string(state)).Msg("app state changed")
	s.appState = state

	for _, c := range s.controllers {
		if state == AppActive {
			c.Resume()
		} else {
			c.Suspend()
		}
	}
	return nil
}

// Mount attaches a controller to a rendered item. Mounting twice is a no-op.
func (s *Session) Mount(id string) error {
	if s.closed {
		return ErrClosed
	}
	if s.feed.IndexOf(id) < 0 {
		return ErrUnknownItem
	}
	if _, ok := s.controllers[id]; ok {
		return nil
	}

	c := playback.NewController(id, s, s.logger, playback.Hooks{
		OnTransition: s.handleTransition,
		OnFinish:     s.handleFinish,
		OnError:      s.handleError,
	})
	s.controllers[id] = c
	if s.appState != AppActive {
		c.Suspend()
	}
	if id == s.activeID {
		c.SetActive(true)
	}
	return nil
}

func (s *Session) Unmount(id string) error {
	if s.closed {
		return ErrClosed
	}
	c, ok := s.controllers[id]
	if !ok {
		return ErrNotMounted
	}
	c.Unmount()
	delete(s.controllers, id)
	return nil
}

func (s *Session) MediaReady(id string) error {
	return s.withController(id, (*playback.Controller).MediaReady)
}

func (s *Session) MediaProgress(id string, pos time.Duration) error {
	return s.withController(id, func(c *playback.Controller) { c.MediaProgress(pos) })
}

func (s *Session) MediaFinished(id string) error {
	return s.withController(id, (*playback.Controller).MediaFinished)
}

func (s *Session) MediaError(id string, err error) error {
	return s.withController(id, func(c *playback.Controller) { c.MediaError(err) })
}

func (s *Session) TogglePlay(id string) error {
	return s.withController(id, (*playback.Controller).TogglePlay)
}

func (s *Session) ToggleMute(id string) error {
	return s.withController(id, (*playback.Controller).ToggleMute)
}

// ToggleLike flips the like state locally. Liking spawns a floating heart.
func (s *Session) ToggleLike(id string) (storage.Reel, error) {
	if s.closed {
		return storage.Reel{}, ErrClosed
	}
	reel, ok := s.feed.ToggleLike(id)
	if !ok {
		return storage.Reel{}, ErrUnknownItem
	}
	if reel.Liked {
		s.effects.Spawn(effects.FloatingHeart, id)
	}
	return reel, nil
}

func (s *Session) withController(id string, fn func(*playback.Controller)) error {
	if s.closed {
		return ErrClosed
	}
	c, ok := s.controllers[id]
	if !ok {
		return ErrNotMounted
	}
	fn(c)
	return nil
}

func (s *Session) handleFeedUpdate(u feed.Update) {
	if s.closed {
		return
	}
	if u.State.Err != nil {
		s.notice(NoticeFetchError, "", u.State.Err.Error())
	}

	n := len(u.State.Items)
	if !u.Reset {
		s.tracker.SetLength(n)
		return
	}

	for id, c := range s.controllers {
		if s.feed.IndexOf(id) < 0 {
			c.Unmount()
			delete(s.controllers, id)
		}
	}
	s.tracker.Reset(n)
	// The index may be unchanged while the item under it is not.
	s.syncActive()
}

// syncActive moves the active flag to the item under the tracker's index.
// The previous controller is deactivated first.
func (s *Session) syncActive() {
	next := ""
	if reel, ok := s.feed.Item(s.tracker.Active()); ok {
		next = reel.ID
	}
	if next == s.activeID {
		return
	}

	if c, ok := s.controllers[s.activeID]; ok {
		c.SetActive(false)
	}
	s.activeID = next
	if c, ok := s.controllers[next]; ok {
		c.SetActive(true)
	}
}

// OnTransition observes playback state changes of every mounted item.
func (s *Session) OnTransition(fn func(id string, from, to playback.State)) {
	s.onTransition = append(s.onTransition, fn)
}

func (s *Session) handleTransition(c *playback.Controller, from, to playback.State) {
	for _, fn := range s.onTransition {
		fn(c.ItemID(), from, to)
	}
}

func (s *Session) handleFinish(c *playback.Controller) {
	idx := s.feed.IndexOf(c.ItemID())
	if idx < 0 || idx != s.tracker.Active() {
		return
	}
	if idx+1 < s.feed.Len() {
		s.tracker.ScrollTo(idx + 1)
		return
	}
	s.feed.LoadMore()
	c.Restart()
}

func (s *Session) handleError(c *playback.Controller, err *playback.PlaybackError) {
	s.metrics.IncPlaybackErrors()
	s.notice(NoticePlaybackError, c.ItemID(), err.Error())
}

func (s *Session) notice(kind, itemID, msg string) {
	s.notices = append(s.notices, Notice{At: s.sched.Now(), Kind: kind, ItemID: itemID, Message: msg})
	if over := len(s.notices) - s.maxNotices; over > 0 {
		s.notices = append([]Notice(nil), s.notices[over:]...)
	}
}

// Close unmounts every controller and stops pending timers. Fetches still in
// flight complete into a closed session and are dropped.
func (s *Session) Close() {
	if s.closed {
		return
	}
	for id, c := range s.controllers {
		c.Unmount()
		delete(s.controllers, id)
	}
	s.tracker.Close()
	s.effects.Clear()
	s.closed = true
	s.logger.Info().Msg("session closed")
}

func (s *Session) Closed() bool {
	return s.closed
}
