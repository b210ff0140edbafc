package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

func TestBuildDownloadArgs_VideoRequest(t *testing.T) {
	f := NewYTDLPFetcher("yt-dlp", t.TempDir(), nil)

	args := f.buildDownloadArgs("https://www.youtube.com/watch?v=dQw4w9WgXcQ", domain.FetchOptions{
		FormatSelector: "best[ext=mp4]",
		OutputTemplate: "/tmp/%(title)s.%(ext)s",
		MergeFormat:    "mp4",
	})

	assert.Equal(t, []string{
		"--newline", "--no-playlist", "--no-warnings",
		"-f", "best[ext=mp4]",
		"-o", "/tmp/%(title)s.%(ext)s",
		"--merge-output-format", "mp4",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, args)
}

func TestBuildDownloadArgs_AudioRequest(t *testing.T) {
	f := NewYTDLPFetcher("yt-dlp", t.TempDir(), nil)

	args := f.buildDownloadArgs("https://www.youtube.com/watch?v=dQw4w9WgXcQ", domain.FetchOptions{
		FormatSelector: "bestaudio/best",
		OutputTemplate: "/tmp/%(title)s.%(ext)s",
		ExtractAudio:   true,
		AudioCodec:     "mp3",
		AudioBitrate:   "192",
		// MergeFormat must be ignored when extracting audio
		MergeFormat: "mp4",
	})

	assert.Contains(t, args, "-x")
	assert.Contains(t, args, "--audio-format")
	assert.Contains(t, args, "mp3")
	assert.Contains(t, args, "--audio-quality")
	assert.Contains(t, args, "192K")
	assert.NotContains(t, args, "--merge-output-format")
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c | d", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 5))
	assert.Equal(t, "", lastLines("", 3))
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "/tmp/song.mp3", replaceExt("/tmp/song.webm", ".mp3"))
	assert.Equal(t, "/tmp/song.mp3", replaceExt("/tmp/song.mp3", ".mp3"))
	assert.Equal(t, "/tmp/noext.mp3", replaceExt("/tmp/noext", ".mp3"))
}
