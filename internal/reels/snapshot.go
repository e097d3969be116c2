package reels

import (
	"reelview/internal/effects"
	"reelview/internal/overlay"
	"reelview/internal/playback"
	"reelview/internal/storage"
)

type ItemView struct {
	Index    int                `json:"index"`
	Reel     storage.Reel       `json:"reel"`
	Mounted  bool               `json:"mounted"`
	Playback *playback.Snapshot `json:"playback,omitempty"`
	Overlay  overlay.Overlay    `json:"overlay"`
}

// Snapshot is a read-only copy of the screen state.
type Snapshot struct {
	ID        string           `json:"id"`
	AppState  AppState         `json:"app_state"`
	Active    int              `json:"active"`
	ActiveID  string           `json:"active_id,omitempty"`
	Page      int              `json:"page"`
	Loading   bool             `json:"loading"`
	EndOfData bool             `json:"end_of_data"`
	Error     string           `json:"error,omitempty"`
	Items     []ItemView       `json:"items"`
	Effects   []effects.Effect `json:"effects"`
	Notices   []Notice         `json:"notices"`
	Pending   int              `json:"pending_commands"`
}

func (s *Session) Snapshot() Snapshot {
	st := s.feed.State()
	snap := Snapshot{
		ID:        s.ID,
		AppState:  s.appState,
		Active:    s.tracker.Active(),
		ActiveID:  s.activeID,
		Page:      st.Page,
		Loading:   st.Loading,
		EndOfData: st.EndOfData,
		Items:     make([]ItemView, 0, len(st.Items)),
		Effects:   s.effects.Live(),
		Notices:   append([]Notice(nil), s.notices...),
		Pending:   len(s.outbox),
	}
	if st.Err != nil {
		snap.Error = st.Err.Error()
	}

	for i, reel := range st.Items {
		view := ItemView{Index: i, Reel: reel}
		var ps playback.Snapshot
		if c, ok := s.controllers[reel.ID]; ok {
			ps = c.Snapshot()
			view.Mounted = true
			view.Playback = &ps
		}
		view.Overlay = s.overlay.Build(reel, ps)
		snap.Items = append(snap.Items, view)
	}
	return snap
}

// PlayingCount reports how many mounted controllers are in Playing.
func (s *Session) PlayingCount() int {
	n := 0
	for _, c := range s.controllers {
		if c.State() == playback.Playing {
			n++
		}
	}
	return n
}

func (s *Session) Controller(id string) (*playback.Controller, bool) {
	c, ok := s.controllers[id]
	return c, ok
}
