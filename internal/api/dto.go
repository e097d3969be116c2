package api

import (
	"reelview/internal/reels"
	"reelview/internal/storage"
	"reelview/internal/viewport"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ReelResponse struct {
	Reel      *storage.Reel `json:"reel"`
	StreamURL string        `json:"stream_url"`
}

type SessionResponse struct {
	Session reels.Snapshot `json:"session"`
}

// Session input DTOs

type ViewportRequest struct {
	Visible []viewport.Visibility `json:"visible"`
}

type DeepLinkRequest struct {
	ItemID string `json:"item_id"`
}

type AppStateRequest struct {
	State reels.AppState `json:"state"`
}

// MediaEventRequest carries one status callback from the native pipeline.
// Event is one of ready, progress, finished or error.
type MediaEventRequest struct {
	Event      string `json:"event"`
	PositionMS int64  `json:"position_ms"`
	Error      string `json:"error"`
}

type LoadMoreResponse struct {
	Started bool           `json:"started"`
	Session reels.Snapshot `json:"session"`
}

type LikeResponse struct {
	Reel    storage.Reel   `json:"reel"`
	Session reels.Snapshot `json:"session"`
}

// Surface commands

type CommandDTO struct {
	Seq        uint64 `json:"seq"`
	Kind       string `json:"kind"`
	ItemID     string `json:"item_id,omitempty"`
	PositionMS *int64 `json:"position_ms,omitempty"`
	Muted      *bool  `json:"muted,omitempty"`
	Index      *int   `json:"index,omitempty"`
	Animated   bool   `json:"animated,omitempty"`
}

type CommandsResponse struct {
	Commands []CommandDTO `json:"commands"`
}
