package media

import (
	"net/url"
	"path/filepath"
	"strings"
)

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// IsSupportedVideo reports whether a file can be offered as a reel.
func IsSupportedVideo(filename string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// LocalPath returns the filesystem path behind a file:// video URL.
func LocalPath(videoURL string) (string, bool) {
	u, err := url.Parse(videoURL)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}
