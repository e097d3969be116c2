package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ctrl        *Controller
	commands    []Command
	transitions [][2]State
	finishes    int
	errs        []*PlaybackError
}

func newHarness() *harness {
	h := &harness{}
	h.ctrl = NewController("reel1", PipelineFunc(func(cmd Command) {
		h.commands = append(h.commands, cmd)
	}), zerolog.Nop(), Hooks{
		OnTransition: func(_ *Controller, from, to State) {
			h.transitions = append(h.transitions, [2]State{from, to})
		},
		OnFinish: func(*Controller) { h.finishes++ },
		OnError: func(_ *Controller, err *PlaybackError) {
			h.errs = append(h.errs, err)
		},
	})
	return h
}

func (h *harness) kinds() []CommandKind {
	out := make([]CommandKind, 0, len(h.commands))
	for _, c := range h.commands {
		out = append(out, c.Kind)
	}
	return out
}

func (h *harness) reset() {
	h.commands = nil
	h.transitions = nil
}

func TestController_ActivateLoadsThenPlays(t *testing.T) {
	h := newHarness()

	h.ctrl.SetActive(true)
	require.Equal(t, Loading, h.ctrl.State())
	require.Empty(t, h.commands)

	h.ctrl.MediaReady()
	require.Equal(t, Playing, h.ctrl.State())
	require.Equal(t, []CommandKind{CommandPlay}, h.kinds())
	require.Equal(t, [][2]State{{Inactive, Loading}, {Loading, Playing}}, h.transitions)
	require.Equal(t, "reel1", h.commands[0].ItemID)
}

func TestController_ReadyBeforeActivationPlaysImmediately(t *testing.T) {
	h := newHarness()
	h.ctrl.MediaReady()
	require.Equal(t, Inactive, h.ctrl.State())

	h.ctrl.SetActive(true)
	require.Equal(t, Playing, h.ctrl.State())
}

func TestController_ReadyAfterDeactivationDoesNotPlay(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.SetActive(false)
	h.reset()

	h.ctrl.MediaReady()
	require.Equal(t, Inactive, h.ctrl.State())
	require.Empty(t, h.commands)
}

func TestController_DeactivatePausesAndRewinds(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()
	h.ctrl.MediaProgress(3 * time.Second)
	require.Equal(t, 3*time.Second, h.ctrl.Snapshot().Position)
	h.reset()

	h.ctrl.SetActive(false)
	require.Equal(t, Inactive, h.ctrl.State())
	require.Equal(t, []CommandKind{CommandPause, CommandSeek}, h.kinds())
	require.Equal(t, time.Duration(0), h.commands[1].Position)
	require.Equal(t, time.Duration(0), h.ctrl.Snapshot().Position)

	// Re-activation starts over instead of resuming.
	h.reset()
	h.ctrl.SetActive(true)
	require.Equal(t, Playing, h.ctrl.State())
	require.Equal(t, []CommandKind{CommandPlay}, h.kinds())
}

func TestController_TogglePlay(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()

	h.ctrl.TogglePlay()
	require.Equal(t, Paused, h.ctrl.State())
	h.ctrl.TogglePlay()
	require.Equal(t, Playing, h.ctrl.State())
	require.Equal(t, []CommandKind{CommandPlay, CommandPause, CommandPlay}, h.kinds())
}

func TestController_PlayIgnoredWhenInactive(t *testing.T) {
	h := newHarness()
	h.ctrl.MediaReady()

	h.ctrl.TogglePlay()
	h.ctrl.Play()
	require.Equal(t, Inactive, h.ctrl.State())
	require.Empty(t, h.commands)
}

func TestController_FinishRequestsAdvance(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()

	h.ctrl.MediaFinished()
	require.Equal(t, Finished, h.ctrl.State())
	require.Equal(t, 1, h.finishes)
	require.True(t, h.ctrl.Snapshot().Finished)

	h.ctrl.SetActive(false)
	require.Equal(t, Inactive, h.ctrl.State())
	require.False(t, h.ctrl.Snapshot().Finished)
}

func TestController_StaleFinishIgnored(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()
	h.ctrl.SetActive(false)

	h.ctrl.MediaFinished()
	require.Equal(t, Inactive, h.ctrl.State())
	require.Zero(t, h.finishes)

	h.ctrl.SetActive(true)
	h.ctrl.Pause()
	h.ctrl.MediaFinished()
	require.Equal(t, Paused, h.ctrl.State())
	require.Zero(t, h.finishes)
}

func TestController_RestartLoops(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()
	h.ctrl.MediaFinished()
	h.reset()

	h.ctrl.Restart()
	require.Equal(t, Playing, h.ctrl.State())
	require.Equal(t, []CommandKind{CommandSeek, CommandPlay}, h.kinds())
}

func TestController_MediaErrorGoesInactive(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()
	h.reset()

	boom := errors.New("decoder failed")
	h.ctrl.MediaError(boom)

	require.Equal(t, Inactive, h.ctrl.State())
	require.Equal(t, []CommandKind{CommandPause}, h.kinds())
	require.Len(t, h.errs, 1)
	require.ErrorIs(t, h.errs[0], boom)
	require.Equal(t, "reel1", h.errs[0].ItemID)

	// No automatic retry, and it stays put while still active.
	h.ctrl.TogglePlay()
	require.Equal(t, Inactive, h.ctrl.State())
	require.Len(t, h.commands, 1)
}

func TestController_MuteIndependentOfActivation(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()

	h.ctrl.ToggleMute()
	require.True(t, h.ctrl.Snapshot().Muted)
	require.Equal(t, Playing, h.ctrl.State())

	h.ctrl.SetActive(false)
	h.ctrl.SetActive(true)
	require.True(t, h.ctrl.Snapshot().Muted)

	h.ctrl.SetMuted(true)
	muteCommands := 0
	for _, c := range h.commands {
		if c.Kind == CommandSetMuted {
			muteCommands++
		}
	}
	require.Equal(t, 1, muteCommands)

	// A fresh instance for the same item starts unmuted.
	again := NewController("reel1", nil, zerolog.Nop(), Hooks{})
	require.False(t, again.Snapshot().Muted)
}

func TestController_SuspendResume(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()

	h.ctrl.Suspend()
	require.Equal(t, Paused, h.ctrl.State())

	h.ctrl.Resume()
	require.Equal(t, Playing, h.ctrl.State())
}

func TestController_SuspendedActivationWaitsForResume(t *testing.T) {
	h := newHarness()
	h.ctrl.MediaReady()
	h.ctrl.Suspend()

	h.ctrl.SetActive(true)
	require.Equal(t, Paused, h.ctrl.State())

	h.ctrl.Resume()
	require.Equal(t, Playing, h.ctrl.State())
}

func TestController_UnmountIgnoresCallbacks(t *testing.T) {
	h := newHarness()
	h.ctrl.SetActive(true)
	h.ctrl.MediaReady()

	h.ctrl.Unmount()
	require.True(t, h.ctrl.Unmounted())
	require.Equal(t, Inactive, h.ctrl.State())
	h.reset()

	h.ctrl.MediaReady()
	h.ctrl.MediaProgress(time.Second)
	h.ctrl.MediaFinished()
	h.ctrl.MediaError(errors.New("late"))
	h.ctrl.SetActive(true)
	h.ctrl.ToggleMute()

	require.Empty(t, h.commands)
	require.Empty(t, h.transitions)
	require.Empty(t, h.errs)
	require.Zero(t, h.finishes)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "playing", Playing.String())
	require.Equal(t, "state(9)", State(9).String())

	text, err := Finished.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "finished", string(text))
}
