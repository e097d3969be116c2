package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"reelview/internal/loop"
	"reelview/internal/media"
	"reelview/internal/metrics"
	"reelview/internal/reels"
	"reelview/internal/storage"
	"reelview/internal/streaming"
)

const Version = "0.1.0"

type Handler struct {
	storage  *storage.SQLiteStorage
	sessions *SessionStore
	loop     *loop.Loop
	streamer *streaming.Handler
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewHandler(store *storage.SQLiteStorage, sessions *SessionStore, lp *loop.Loop, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		storage:  store,
		sessions: sessions,
		loop:     lp,
		streamer: streaming.NewHandler(logger),
		metrics:  m,
		logger:   logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Sessions: h.sessions.Len(),
	})
}

func (h *Handler) Metrics() http.Handler {
	return h.metrics.Handler(func() {
		h.metrics.SetSessions(h.sessions.Len())
	})
}

// Catalog

func (h *Handler) GetReel(w http.ResponseWriter, r *http.Request) {
	reel, ok := h.lookupReel(w, r)
	if !ok {
		return
	}

	streamURL := reel.VideoURL
	if _, local := media.LocalPath(reel.VideoURL); local {
		streamURL = streamPath(reel.ID)
	}
	writeJSON(w, http.StatusOK, ReelResponse{Reel: reel, StreamURL: streamURL})
}

// StreamReel serves imported library files and redirects to remote URLs.
func (h *Handler) StreamReel(w http.ResponseWriter, r *http.Request) {
	reel, ok := h.lookupReel(w, r)
	if !ok {
		return
	}

	path, local := media.LocalPath(reel.VideoURL)
	if !local {
		http.Redirect(w, r, reel.VideoURL, http.StatusFound)
		return
	}
	h.streamer.ServeFile(w, r, path)
}

func (h *Handler) lookupReel(w http.ResponseWriter, r *http.Request) (*storage.Reel, bool) {
	id := chi.URLParam(r, "id")

	reel, err := h.storage.GetReel(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to get reel")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get reel")
		return nil, false
	}
	if reel == nil {
		writeError(w, http.StatusNotFound, "REEL_NOT_FOUND", "Reel not found")
		return nil, false
	}
	return reel, true
}

// Sessions

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	var snap reels.Snapshot
	if err := h.loop.Do(r.Context(), func() { snap = s.Snapshot() }); err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Session: present(snap)})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(*reels.Session) error { return nil })
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Remove(chi.URLParam(r, "sid")) {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, (*reels.Session).Refresh)
}

func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		resp LoadMoreResponse
		err  error
	)
	doErr := h.loop.Do(r.Context(), func() {
		resp.Started, err = s.EndReached()
		resp.Session = s.Snapshot()
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	resp.Session = present(resp.Session)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(s *reels.Session) error {
		return s.ViewableItemsChanged(req.Visible)
	})
}

func (h *Handler) DeepLink(w http.ResponseWriter, r *http.Request) {
	var req DeepLinkRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "item_id is required")
		return
	}
	h.apply(w, r, func(s *reels.Session) error {
		return s.OpenDeepLink(req.ItemID)
	})
}

func (h *Handler) AppState(w http.ResponseWriter, r *http.Request) {
	var req AppStateRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.State.Valid() {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "state must be active, inactive or background")
		return
	}
	h.apply(w, r, func(s *reels.Session) error {
		return s.SetAppState(req.State)
	})
}

func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var out []reels.Outgoing
	if err := h.loop.Do(r.Context(), func() { out = s.DrainCommands() }); err != nil {
		h.writeSessionError(w, err)
		return
	}

	resp := CommandsResponse{Commands: make([]CommandDTO, 0, len(out))}
	for _, o := range out {
		resp.Commands = append(resp.Commands, commandDTO(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Items

func (h *Handler) Mount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.apply(w, r, func(s *reels.Session) error { return s.Mount(id) })
}

func (h *Handler) Unmount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.apply(w, r, func(s *reels.Session) error { return s.Unmount(id) })
}

func (h *Handler) MediaEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MediaEventRequest
	if !decode(w, r, &req) {
		return
	}

	var fn func(s *reels.Session) error
	switch req.Event {
	case "ready":
		fn = func(s *reels.Session) error { return s.MediaReady(id) }
	case "progress":
		pos := time.Duration(req.PositionMS) * time.Millisecond
		fn = func(s *reels.Session) error { return s.MediaProgress(id, pos) }
	case "finished":
		fn = func(s *reels.Session) error { return s.MediaFinished(id) }
	case "error":
		msg := req.Error
		if msg == "" {
			msg = "media pipeline error"
		}
		fn = func(s *reels.Session) error { return s.MediaError(id, errors.New(msg)) }
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "event must be ready, progress, finished or error")
		return
	}

	h.apply(w, r, fn)
}

func (h *Handler) TogglePlay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.apply(w, r, func(s *reels.Session) error { return s.TogglePlay(id) })
}

func (h *Handler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.apply(w, r, func(s *reels.Session) error { return s.ToggleMute(id) })
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var (
		resp LikeResponse
		err  error
	)
	doErr := h.loop.Do(r.Context(), func() {
		resp.Reel, err = s.ToggleLike(id)
		resp.Session = s.Snapshot()
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	resp.Session = present(resp.Session)
	writeJSON(w, http.StatusOK, resp)
}

// apply runs fn against the addressed session on the loop and answers with
// the resulting snapshot.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, fn func(*reels.Session) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		snap reels.Snapshot
		err  error
	)
	doErr := h.loop.Do(r.Context(), func() {
		err = fn(s)
		snap = s.Snapshot()
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Session: present(snap)})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*reels.Session, bool) {
	s, ok := h.sessions.Get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reels.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Item is not in the feed")
	case errors.Is(err, reels.ErrNotMounted):
		writeError(w, http.StatusConflict, "ITEM_NOT_MOUNTED", "Item is not mounted")
	case errors.Is(err, reels.ErrClosed):
		writeError(w, http.StatusGone, "SESSION_CLOSED", "Session is closed")
	case errors.Is(err, loop.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Server is shutting down")
	default:
		h.logger.Error().Err(err).Msg("session request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
