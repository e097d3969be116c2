package streaming

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServeFileRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()

	NewHandler(zerolog.Nop()).ServeFile(rec, req, path)

	resp := rec.Result()
	require.Equal(t, http.StatusPartialContent, resp.StatusCode)
	require.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	require.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "2345", string(body))
}

func TestHandler_ServeFileMissing(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(zerolog.Nop()).ServeFile(rec, httptest.NewRequest(http.MethodGet, "/stream", nil), filepath.Join(t.TempDir(), "gone.mp4"))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
