package playback

import (
	"fmt"
	"time"
)

type CommandKind string

const (
	CommandPlay     CommandKind = "play"
	CommandPause    CommandKind = "pause"
	CommandSeek     CommandKind = "seek"
	CommandSetMuted CommandKind = "set_muted"
)

// Command is an instruction for the native media pipeline of one item.
type Command struct {
	ItemID   string        `json:"item_id"`
	Kind     CommandKind   `json:"kind"`
	Position time.Duration `json:"position,omitempty"`
	Muted    bool          `json:"muted,omitempty"`
}

func (c Command) String() string {
	switch c.Kind {
	case CommandSeek:
		return fmt.Sprintf("%s:seek(%s)", c.ItemID, c.Position)
	case CommandSetMuted:
		return fmt.Sprintf("%s:set_muted(%t)", c.ItemID, c.Muted)
	default:
		return fmt.Sprintf("%s:%s", c.ItemID, c.Kind)
	}
}

// Pipeline executes commands against the media pipeline. The controller
// never talks to media any other way.
type Pipeline interface {
	Execute(cmd Command)
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(cmd Command)

func (f PipelineFunc) Execute(cmd Command) {
	f(cmd)
}
