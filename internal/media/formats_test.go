package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSupportedVideo(t *testing.T) {
	require.True(t, IsSupportedVideo("clip.MP4"))
	require.True(t, IsSupportedVideo("dir/clip.webm"))
	require.False(t, IsSupportedVideo("notes.txt"))
	require.False(t, IsSupportedVideo("noext"))
}

func TestContentType(t *testing.T) {
	require.Equal(t, "video/quicktime", ContentType("a.mov"))
	require.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

func TestLocalPath(t *testing.T) {
	p, ok := LocalPath("file:///srv/videos/a%20b.mp4")
	require.True(t, ok)
	require.Equal(t, "/srv/videos/a b.mp4", p)

	_, ok = LocalPath("https://assets.mixkit.co/videos/1038/1038-720.mp4")
	require.False(t, ok)
}
