package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"reelview/internal/loop"
	"reelview/internal/metrics"
	"reelview/internal/storage"
)

const (
	DefaultPageSize = 5
	DefaultLatency  = time.Second
	DefaultTimeout  = 5 * time.Second
)

// Source is the remote content collaborator. Pages are 1-based; a page past
// the end of the catalog is empty.
type Source interface {
	FetchPage(ctx context.Context, page, size int) ([]storage.Reel, error)
}

type Options struct {
	PageSize int
	// Latency delays every completion to mimic a network round trip.
	Latency time.Duration
	Timeout time.Duration
}

// State is a copy of the feed as seen by consumers.
type State struct {
	Items     []storage.Reel
	Page      int
	Loading   bool
	EndOfData bool
	Err       error
}

// Update is delivered to listeners after every applied completion. Reset is
// set when page 1 replaced the whole sequence.
type Update struct {
	State State
	Reset bool
}

// Feed owns the ordered reel sequence. It must only be used from the loop
// that backs its scheduler.
type Feed struct {
	source  Source
	sched   loop.Scheduler
	opts    Options
	logger  zerolog.Logger
	metrics *metrics.Metrics

	items      []storage.Reel
	index      map[string]int
	page       int
	loading    bool
	end        bool
	err        error
	generation uint64
	listeners  []func(Update)
}

func New(source Source, sched loop.Scheduler, opts Options, logger zerolog.Logger, m *metrics.Metrics) *Feed {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Latency < 0 {
		opts.Latency = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Feed{
		source:  source,
		sched:   sched,
		opts:    opts,
		logger:  logger.With().Str("component", "feed").Logger(),
		metrics: m,
		index:   make(map[string]int),
	}
}

func (f *Feed) OnUpdate(fn func(Update)) {
	f.listeners = append(f.listeners, fn)
}

// FetchPage requests page. Page 1 replaces the sequence, later pages append.
// It returns false without doing anything while another fetch is in flight.
func (f *Feed) FetchPage(page int) bool {
	if page < 1 || f.loading {
		return false
	}
	f.start(page)
	return true
}

// LoadMore fetches the page after the cursor unless a fetch is running or
// the end of data was reached.
func (f *Feed) LoadMore() bool {
	if f.loading || f.end {
		return false
	}
	return f.FetchPage(f.page + 1)
}

// Refresh starts over from page 1. Any fetch still in flight is superseded
// and its completion dropped. The current items stay visible until the new
// first page lands.
func (f *Feed) Refresh() {
	f.generation++
	f.end = false
	f.err = nil
	f.start(1)
}

// start issues exactly one source call. The call runs off the loop; its
// result comes back to the loop and is applied once Latency has passed since
// the fetch was issued.
func (f *Feed) start(page int) {
	f.loading = true
	gen := f.generation
	issued := f.sched.Now()
	source, size, timeout := f.source, f.opts.PageSize, f.opts.Timeout

	f.logger.Debug().
		Int("page", page).
		Uint64("generation", gen).
		Msg("fetch issued")

	f.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		items, err := source.FetchPage(ctx, page, size)
		cancel()

		return func() {
			wait := f.opts.Latency - f.sched.Now().Sub(issued)
			if wait < 0 {
				wait = 0
			}
			f.sched.AfterFunc(wait, func() {
				f.complete(gen, page, items, err)
			})
		}
	})
}

func (f *Feed) complete(gen uint64, page int, items []storage.Reel, err error) {
	if gen != f.generation {
		f.metrics.IncStale()
		f.logger.Debug().
			Int("page", page).
			Uint64("generation", gen).
			Uint64("current", f.generation).
			Msg("stale fetch discarded")
		return
	}

	f.loading = false

	if err != nil {
		f.err = &FetchError{Page: page, Err: err}
		f.metrics.ObserveFetch("error")
		f.logger.Warn().Err(err).Int("page", page).Msg("fetch failed")
		f.notify(false)
		return
	}

	f.err = nil
	reset := page == 1

	if len(items) == 0 {
		f.end = true
		if reset {
			f.replace(nil)
			f.page = 0
		}
		f.metrics.ObserveFetch("empty")
		f.logger.Info().Int("page", page).Msg("end of feed reached")
		f.notify(reset)
		return
	}

	if reset {
		f.replace(items)
	} else {
		f.appendUnique(items)
	}
	f.page = page

	f.metrics.ObserveFetch("ok")
	f.logger.Debug().
		Int("page", page).
		Int("received", len(items)).
		Int("total", len(f.items)).
		Msg("page applied")
	f.notify(reset)
}

func (f *Feed) replace(items []storage.Reel) {
	f.items = append([]storage.Reel(nil), items...)
	f.index = make(map[string]int, len(f.items))
	for i, it := range f.items {
		f.index[it.ID] = i
	}
}

func (f *Feed) appendUnique(items []storage.Reel) {
	for _, it := range items {
		if _, ok := f.index[it.ID]; ok {
			continue
		}
		f.index[it.ID] = len(f.items)
		f.items = append(f.items, it)
	}
}

func (f *Feed) notify(reset bool) {
	u := Update{State: f.State(), Reset: reset}
	for _, fn := range f.listeners {
		fn(u)
	}
}

func (f *Feed) State() State {
	return State{
		Items:     append([]storage.Reel(nil), f.items...),
		Page:      f.page,
		Loading:   f.loading,
		EndOfData: f.end,
		Err:       f.err,
	}
}

func (f *Feed) Len() int {
	return len(f.items)
}

func (f *Feed) Loading() bool {
	return f.loading
}

func (f *Feed) Item(i int) (storage.Reel, bool) {
	if i < 0 || i >= len(f.items) {
		return storage.Reel{}, false
	}
	return f.items[i], true
}

// IndexOf returns -1 for ids not in the loaded sequence.
func (f *Feed) IndexOf(id string) int {
	if i, ok := f.index[id]; ok {
		return i
	}
	return -1
}

// ToggleLike flips the liked flag and adjusts the like counter locally.
// Nothing is written back to the source.
func (f *Feed) ToggleLike(id string) (storage.Reel, bool) {
	i, ok := f.index[id]
	if !ok {
		return storage.Reel{}, false
	}

	it := &f.items[i]
	it.Liked = !it.Liked
	if it.Liked {
		it.Likes++
	} else if it.Likes > 0 {
		it.Likes--
	}

	return *it, true
}
