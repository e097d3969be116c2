package overlay

import (
	"github.com/dustin/go-humanize"
	"reelview/internal/playback"
	"reelview/internal/storage"
)

type Control int

const (
	Like Control = iota
	Comment
	Share
	Mute
)

var controlNames = [...]string{"like", "comment", "share", "mute"}

func (c Control) String() string {
	if c < 0 || int(c) >= len(controlNames) {
		return "unknown"
	}
	return controlNames[c]
}

func (c Control) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Variant selects the look of a control: Active is liked for Like and
// muted for Mute.
type Variant int

const (
	Default Variant = iota
	Active
)

type Style struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type Button struct {
	Control Control `json:"control"`
	Style
	Count string `json:"count,omitempty"`
}

// Overlay is the render model for the controls drawn over a reel.
type Overlay struct {
	ItemID        string   `json:"item_id"`
	Username      string   `json:"username"`
	HasStory      bool     `json:"has_story"`
	Caption       string   `json:"caption"`
	AudioName     string   `json:"audio_name,omitempty"`
	ShowPlayIcon  bool     `json:"show_play_icon"`
	RightControls []Button `json:"right_controls"`
}

const (
	white = "#FFFFFF"
	liked = "#FF375F"
)

type styleKey struct {
	control Control
	variant Variant
}

// Table resolves every control/variant pair once at construction.
type Table struct {
	styles map[styleKey]Style
}

func NewTable() *Table {
	return &Table{styles: map[styleKey]Style{
		{Like, Default}:    {Icon: "heart", Color: white},
		{Like, Active}:     {Icon: "heart", Color: liked},
		{Comment, Default}: {Icon: "message-circle", Color: white},
		{Comment, Active}:  {Icon: "message-circle", Color: white},
		{Share, Default}:   {Icon: "share", Color: white},
		{Share, Active}:    {Icon: "share", Color: white},
		{Mute, Default}:    {Icon: "volume-2", Color: white},
		{Mute, Active}:     {Icon: "volume-x", Color: white},
	}}
}

func (t *Table) Style(c Control, v Variant) Style {
	return t.styles[styleKey{c, v}]
}

// Build produces the overlay for reel given its playback snapshot. A reel
// without a mounted controller is rendered with a zero snapshot.
func (t *Table) Build(reel storage.Reel, snap playback.Snapshot) Overlay {
	return Overlay{
		ItemID:       reel.ID,
		Username:     reel.Author.Username,
		HasStory:     reel.Author.HasStory,
		Caption:      reel.Caption,
		AudioName:    reel.AudioName,
		ShowPlayIcon: !snap.Playing,
		RightControls: []Button{
			{Control: Like, Style: t.Style(Like, variant(reel.Liked)), Count: FormatCount(reel.Likes)},
			{Control: Comment, Style: t.Style(Comment, Default), Count: FormatCount(reel.Comments)},
			{Control: Share, Style: t.Style(Share, Default), Count: FormatCount(reel.Shares)},
			{Control: Mute, Style: t.Style(Mute, variant(snap.Muted))},
		},
	}
}

func variant(on bool) Variant {
	if on {
		return Active
	}
	return Default
}

// FormatCount abbreviates engagement counters: 950, 1.2K, 3.4M.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return humanize.FtoaWithDigits(float64(n)/1_000_000, 1) + "M"
	case n >= 1_000:
		return humanize.FtoaWithDigits(float64(n)/1_000, 1) + "K"
	default:
		return humanize.Comma(n)
	}
}
