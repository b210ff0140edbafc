package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoURLPattern = regexp.MustCompile(
	`^(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/(watch\?v=|embed/|v/|.+\?v=)?([^&=%?]{11})`)

// IsVideoURL reports whether url looks like a single-video YouTube URL.
// The check is deliberately permissive; real validation happens when the
// extractor resolves the URL.
func IsVideoURL(rawURL string) bool {
	return videoURLPattern.MatchString(rawURL)
}

// IsPlaylistURL reports whether the URL carries a playlist identifier in its
// query parameters.
func IsPlaylistURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Get("list") != ""
}

// NormalizePlaylistURL strips unrelated query parameters, keeping the playlist
// id and, if present, the anchor video id. The result is one of two canonical
// shapes:
//
//	https://www.youtube.com/playlist?list=ID
//	https://www.youtube.com/watch?v=VID&list=ID
//
// URLs without a playlist id are returned unchanged.
func NormalizePlaylistURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	listID := q.Get("list")
	if listID == "" {
		return rawURL
	}

	if videoID := q.Get("v"); videoID != "" && !strings.Contains(u.Path, "/playlist") {
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s&list=%s", videoID, listID)
	}
	return fmt.Sprintf("https://www.youtube.com/playlist?list=%s", listID)
}

// VideoURLFromID builds the canonical watch URL for a video id.
func VideoURLFromID(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}
