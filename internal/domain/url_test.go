package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVideoURL_AcceptsCommonShapes(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ",
		"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ",
	}
	for _, u := range valid {
		assert.True(t, IsVideoURL(u), "expected valid: %s", u)
	}
}

func TestIsVideoURL_RejectsNonVideoURLs(t *testing.T) {
	invalid := []string{
		"",
		"not a url",
		"https://www.example.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/123456789",
		"https://www.youtube.com/watch?v=short",
	}
	for _, u := range invalid {
		assert.False(t, IsVideoURL(u), "expected invalid: %s", u)
	}
}

func TestIsPlaylistURL_RequiresListQueryParameter(t *testing.T) {
	assert.True(t, IsPlaylistURL("https://www.youtube.com/playlist?list=PLabc123"))
	assert.True(t, IsPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123"))

	assert.False(t, IsPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.False(t, IsPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list="))
	// "list" must be a query parameter, not just a substring
	assert.False(t, IsPlaylistURL("https://www.youtube.com/playlist-editor"))
}

func TestNormalizePlaylistURL_StripsUnrelatedParameters(t *testing.T) {
	got := NormalizePlaylistURL("https://www.youtube.com/playlist?list=PLabc123&index=4&t=30s")
	assert.Equal(t, "https://www.youtube.com/playlist?list=PLabc123", got)
}

func TestNormalizePlaylistURL_KeepsAnchorVideo(t *testing.T) {
	got := NormalizePlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123&index=4")
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123", got)
}

func TestNormalizePlaylistURL_PassesThroughNonPlaylistURLs(t *testing.T) {
	u := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	assert.Equal(t, u, NormalizePlaylistURL(u))
}

func TestVideoURLFromID_BuildsWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", VideoURLFromID("dQw4w9WgXcQ"))
}
