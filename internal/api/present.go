package api

import (
	"reelview/internal/media"
	"reelview/internal/playback"
	"reelview/internal/reels"
)

func streamPath(id string) string {
	return "/api/v1/reels/" + id + "/stream"
}

// present rewrites file:// media of imported reels to their stream route.
func present(snap reels.Snapshot) reels.Snapshot {
	for i := range snap.Items {
		reel := &snap.Items[i].Reel
		if _, ok := media.LocalPath(reel.VideoURL); ok {
			reel.VideoURL = streamPath(reel.ID)
		}
		if _, ok := media.LocalPath(reel.PosterURL); ok {
			reel.PosterURL = streamPath(reel.ID)
		}
	}
	return snap
}

func commandDTO(o reels.Outgoing) CommandDTO {
	dto := CommandDTO{Seq: o.Seq}

	if o.Scroll != nil {
		index := o.Scroll.Index
		dto.Kind = "scroll_to_index"
		dto.Index = &index
		dto.Animated = o.Scroll.Animated
		return dto
	}

	cmd := o.Playback
	dto.Kind = string(cmd.Kind)
	dto.ItemID = cmd.ItemID
	switch cmd.Kind {
	case playback.CommandSeek:
		ms := cmd.Position.Milliseconds()
		dto.PositionMS = &ms
	case playback.CommandSetMuted:
		muted := cmd.Muted
		dto.Muted = &muted
	}
	return dto
}
