package viewport

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"reelview/internal/loop"
	"reelview/internal/metrics"
)

// None is the active index of an empty feed.
const None = -1

const (
	DefaultThreshold  = 0.6
	DefaultDwell      = 100 * time.Millisecond
	DefaultRetryDelay = 250 * time.Millisecond
)

// ErrScrollTargetUnavailable is reported when a programmatic scroll cannot
// reach its target, either because the item is not loaded or because the
// surface has not laid it out yet.
var ErrScrollTargetUnavailable = errors.New("scroll target unavailable")

// Visibility is one entry of a viewable-items callback.
type Visibility struct {
	Index int     `json:"index"`
	Ratio float64 `json:"ratio"`
}

// Surface is the scrollable list that renders the feed.
type Surface interface {
	ScrollToIndex(index int, animated bool) error
}

// Resolver maps a navigation target to an index at the time of the attempt.
type Resolver func() (int, bool)

type Options struct {
	Threshold  float64
	Dwell      time.Duration
	RetryDelay time.Duration
}

// Tracker decides which feed position is active. It is the only writer of
// the active index.
type Tracker struct {
	sched   loop.Scheduler
	opts    Options
	surface Surface
	logger  zerolog.Logger
	metrics *metrics.Metrics

	length    int
	active    int
	candidate int
	dwell     loop.Timer
	retry     loop.Timer

	onChange  []func(prev, next int)
	onWarning []func(error)
}

func New(sched loop.Scheduler, opts Options, surface Surface, logger zerolog.Logger, m *metrics.Metrics) *Tracker {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Dwell < 0 {
		opts.Dwell = DefaultDwell
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	return &Tracker{
		sched:     sched,
		opts:      opts,
		surface:   surface,
		logger:    logger.With().Str("component", "viewport").Logger(),
		metrics:   m,
		active:    None,
		candidate: None,
	}
}

func (t *Tracker) OnActiveChange(fn func(prev, next int)) {
	t.onChange = append(t.onChange, fn)
}

// OnWarning receives non-fatal navigation problems.
func (t *Tracker) OnWarning(fn func(error)) {
	t.onWarning = append(t.onWarning, fn)
}

func (t *Tracker) Active() int {
	return t.active
}

func (t *Tracker) Len() int {
	return t.length
}

// Observe handles a viewable-items change. The lowest index at or above the
// threshold becomes the candidate and must hold for the dwell time before it
// replaces the active index.
func (t *Tracker) Observe(visible []Visibility) {
	next := None
	for _, v := range visible {
		if v.Index < 0 || v.Index >= t.length || v.Ratio < t.opts.Threshold {
			continue
		}
		if next == None || v.Index < next {
			next = v.Index
		}
	}

	if next == None || next == t.active {
		t.cancelDwell()
		return
	}
	if next == t.candidate && t.dwell != nil {
		return
	}

	t.cancelDwell()
	t.candidate = next

	if t.opts.Dwell == 0 {
		t.promote()
		return
	}
	t.dwell = t.sched.AfterFunc(t.opts.Dwell, t.promote)
}

func (t *Tracker) promote() {
	next := t.candidate
	t.dwell = nil
	t.candidate = None
	if next >= t.length {
		return
	}
	// A user scroll wins over a navigation still waiting for its retry.
	t.cancelRetry()
	t.setActive(next)
}

func (t *Tracker) cancelDwell() {
	if t.dwell != nil {
		t.dwell.Stop()
		t.dwell = nil
	}
	t.candidate = None
}

// SetLength tells the tracker how many items the feed holds.
func (t *Tracker) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	t.length = n

	switch {
	case n == 0:
		t.cancelDwell()
		t.setActive(None)
	case t.active == None:
		t.setActive(0)
	case t.active >= n:
		t.setActive(n - 1)
	}

	if t.candidate >= n {
		t.cancelDwell()
	}
}

// Reset is used after the sequence was replaced: the first item becomes
// active again.
func (t *Tracker) Reset(n int) {
	t.cancelDwell()
	t.cancelRetry()
	if n < 0 {
		n = 0
	}
	t.length = n
	if n == 0 {
		t.setActive(None)
		return
	}
	t.setActive(0)
}

// ScrollTo navigates to a fixed index.
func (t *Tracker) ScrollTo(index int) {
	t.Navigate(func() (int, bool) { return index, true })
}

// Navigate activates the resolved index and scrolls the surface to it. A
// failed attempt is reported once, retried once after RetryDelay and then
// dropped.
func (t *Tracker) Navigate(resolve Resolver) {
	t.cancelRetry()
	if t.attempt(resolve) {
		return
	}

	t.warn(ErrScrollTargetUnavailable)
	t.retry = t.sched.AfterFunc(t.opts.RetryDelay, func() {
		t.retry = nil
		if t.attempt(resolve) {
			return
		}
		t.metrics.IncScrollAbandons()
		t.logger.Warn().Msg("scroll target abandoned after retry")
	})
}

func (t *Tracker) attempt(resolve Resolver) bool {
	index, ok := resolve()
	if !ok || index < 0 || index >= t.length {
		return false
	}

	if t.surface != nil {
		if err := t.surface.ScrollToIndex(index, true); err != nil {
			t.logger.Debug().Err(err).Int("index", index).Msg("surface rejected scroll")
			return false
		}
	}

	// The index only moves once the item is on screen.
	t.cancelDwell()
	t.setActive(index)
	return true
}

func (t *Tracker) cancelRetry() {
	if t.retry != nil {
		t.retry.Stop()
		t.retry = nil
	}
}

func (t *Tracker) setActive(next int) {
	if next == t.active {
		return
	}
	prev := t.active
	t.active = next

	t.metrics.IncActiveChanges()
	t.logger.Debug().Int("prev", prev).Int("next", next).Msg("active index changed")

	for _, fn := range t.onChange {
		fn(prev, next)
	}
}

func (t *Tracker) warn(err error) {
	t.logger.Warn().Err(err).Msg("navigation warning")
	for _, fn := range t.onWarning {
		fn(err)
	}
}

// Close stops pending timers.
func (t *Tracker) Close() {
	t.cancelDwell()
	t.cancelRetry()
}
