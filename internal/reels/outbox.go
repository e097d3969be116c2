package reels

import (
	"fmt"

	"reelview/internal/playback"
)

const maxOutbox = 1024

// ScrollCommand asks the list to bring an index into view.
type ScrollCommand struct {
	Index    int
	Animated bool
}

// Outgoing is one instruction for the rendering surface, either a media
// pipeline command or a scroll request.
type Outgoing struct {
	Seq      uint64
	Playback *playback.Command
	Scroll   *ScrollCommand
}

// Execute implements playback.Pipeline by queueing the command for the
// surface.
func (s *Session) Execute(cmd playback.Command) {
	s.push(Outgoing{Playback: &cmd})
}

// ScrollToIndex implements viewport.Surface. Indexes outside the loaded
// sequence cannot be laid out.
func (s *Session) ScrollToIndex(index int, animated bool) error {
	if index < 0 || index >= s.feed.Len() {
		return fmt.Errorf("index %d not laid out (%d items)", index, s.feed.Len())
	}
	s.push(Outgoing{Scroll: &ScrollCommand{Index: index, Animated: animated}})
	return nil
}

func (s *Session) push(o Outgoing) {
	s.seq++
	o.Seq = s.seq
	if len(s.outbox) >= maxOutbox {
		s.logger.Warn().Uint64("seq", s.outbox[0].Seq).Msg("outbox full, dropping oldest command")
		s.outbox = s.outbox[1:]
	}
	s.outbox = append(s.outbox, o)
}

// DrainCommands returns queued surface commands in issue order and empties
// the queue.
func (s *Session) DrainCommands() []Outgoing {
	out := s.outbox
	s.outbox = nil
	return out
}
