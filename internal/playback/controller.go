package playback

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type State int

const (
	Inactive State = iota
	Loading
	Playing
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PlaybackError is raised when the media pipeline fails to load or play an
// item. It is never retried automatically.
type PlaybackError struct {
	ItemID string
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s: %v", e.ItemID, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// Hooks are optional callbacks into the owner of the controller.
type Hooks struct {
	OnTransition func(c *Controller, from, to State)
	// OnFinish asks the owner to advance past this item.
	OnFinish func(c *Controller)
	OnError  func(c *Controller, err *PlaybackError)
}

// Snapshot is the ephemeral per-item playback state.
type Snapshot struct {
	ItemID   string        `json:"item_id"`
	State    State         `json:"state"`
	Playing  bool          `json:"playing"`
	Muted    bool          `json:"muted"`
	Ready    bool          `json:"ready"`
	Finished bool          `json:"finished"`
	Position time.Duration `json:"position"`
	Active   bool          `json:"active"`
}

// Controller is the playback state machine bound to one mounted item. It
// lives from mount to unmount; a remount gets a fresh controller.
type Controller struct {
	itemID   string
	pipeline Pipeline
	hooks    Hooks
	logger   zerolog.Logger

	state     State
	active    bool
	ready     bool
	muted     bool
	position  time.Duration
	finished  bool
	suspended bool
	unmounted bool
}

func NewController(itemID string, pipeline Pipeline, logger zerolog.Logger, hooks Hooks) *Controller {
	return &Controller{
		itemID:   itemID,
		pipeline: pipeline,
		hooks:    hooks,
		logger:   logger.With().Str("component", "playback").Str("item", itemID).Logger(),
	}
}

func (c *Controller) ItemID() string {
	return c.itemID
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Unmounted() bool {
	return c.unmounted
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		ItemID:   c.itemID,
		State:    c.state,
		Playing:  c.state == Playing,
		Muted:    c.muted,
		Ready:    c.ready,
		Finished: c.finished,
		Position: c.position,
		Active:   c.active,
	}
}

// SetActive is driven by the active index. Deactivation always lands in
// Inactive, paused and rewound to the start.
func (c *Controller) SetActive(active bool) {
	if c.unmounted || c.active == active {
		return
	}
	c.active = active

	if !active {
		c.finished = false
		c.position = 0
		c.emit(Command{Kind: CommandPause})
		c.emit(Command{Kind: CommandSeek, Position: 0})
		c.transition(Inactive)
		return
	}

	if c.state != Inactive {
		return
	}
	switch {
	case c.ready && c.suspended:
		c.transition(Paused)
	case c.ready:
		c.startPlaying()
	default:
		c.transition(Loading)
	}
}

// MediaReady is the pipeline reporting the item can play.
func (c *Controller) MediaReady() {
	if c.unmounted {
		return
	}
	c.ready = true
	if c.state == Loading && c.active && !c.suspended {
		c.startPlaying()
	}
}

func (c *Controller) MediaProgress(pos time.Duration) {
	if c.unmounted || pos < 0 {
		return
	}
	c.position = pos
}

// MediaFinished handles a natural end of media. Finish reports from an item
// that is no longer playing are stale and dropped.
func (c *Controller) MediaFinished() {
	if c.unmounted {
		return
	}
	if !c.active || c.state != Playing {
		c.logger.Debug().Str("state", c.state.String()).Msg("stale finish ignored")
		return
	}

	c.finished = true
	c.transition(Finished)
	if c.hooks.OnFinish != nil {
		c.hooks.OnFinish(c)
	}
}

// MediaError forces the item back to Inactive and reports the failure.
func (c *Controller) MediaError(err error) {
	if c.unmounted {
		return
	}

	perr := &PlaybackError{ItemID: c.itemID, Err: err}
	c.logger.Warn().Err(err).Str("state", c.state.String()).Msg("media pipeline error")

	c.ready = false
	if c.state != Inactive {
		c.emit(Command{Kind: CommandPause})
		c.transition(Inactive)
	}

	if c.hooks.OnError != nil {
		c.hooks.OnError(c, perr)
	}
}

// TogglePlay is a user tap on the video.
func (c *Controller) TogglePlay() {
	switch c.state {
	case Playing:
		c.Pause()
	case Paused, Finished:
		c.Play()
	}
}

func (c *Controller) Play() {
	if c.unmounted || !c.active {
		return
	}
	switch c.state {
	case Paused:
		c.emit(Command{Kind: CommandPlay})
		c.transition(Playing)
	case Finished:
		c.Restart()
	}
}

func (c *Controller) Pause() {
	if c.unmounted || c.state != Playing {
		return
	}
	c.emit(Command{Kind: CommandPause})
	c.transition(Paused)
}

// Restart replays the item from the beginning, the way a looping reel does.
func (c *Controller) Restart() {
	if c.unmounted || !c.active {
		return
	}
	if c.state != Finished && c.state != Playing && c.state != Paused {
		return
	}
	c.finished = false
	c.position = 0
	c.emit(Command{Kind: CommandSeek, Position: 0})
	c.emit(Command{Kind: CommandPlay})
	c.transition(Playing)
}

// Suspend pauses playback while the app is in the background. A suspended
// controller that becomes active waits in Paused until Resume.
func (c *Controller) Suspend() {
	if c.unmounted || c.suspended {
		return
	}
	c.suspended = true
	c.Pause()
}

// Resume undoes Suspend when the app returns to the foreground.
func (c *Controller) Resume() {
	if c.unmounted || !c.suspended {
		return
	}
	c.suspended = false
	if !c.active {
		return
	}
	switch c.state {
	case Paused:
		c.emit(Command{Kind: CommandPlay})
		c.transition(Playing)
	case Loading:
		if c.ready {
			c.startPlaying()
		}
	}
}

func (c *Controller) ToggleMute() {
	c.SetMuted(!c.muted)
}

// SetMuted is independent of the play state and survives activation
// changes for this instance.
func (c *Controller) SetMuted(muted bool) {
	if c.unmounted || c.muted == muted {
		return
	}
	c.muted = muted
	c.emit(Command{Kind: CommandSetMuted, Muted: muted})
}

// Unmount destroys the instance. Every later callback is ignored.
func (c *Controller) Unmount() {
	if c.unmounted {
		return
	}
	if c.state == Playing {
		c.emit(Command{Kind: CommandPause})
	}
	c.unmounted = true
	c.active = false
	c.transition(Inactive)
}

func (c *Controller) startPlaying() {
	c.emit(Command{Kind: CommandPlay})
	c.transition(Playing)
}

func (c *Controller) emit(cmd Command) {
	if c.pipeline == nil {
		return
	}
	cmd.ItemID = c.itemID
	c.pipeline.Execute(cmd)
}

func (c *Controller) transition(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("transition")
	if c.hooks.OnTransition != nil {
		c.hooks.OnTransition(c, from, to)
	}
}
