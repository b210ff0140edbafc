package domain

import (
	"fmt"
	"strings"
)

// Format selects the requested output container.
type Format string

const (
	FormatAudio Format = "mp3"
	FormatVideo Format = "mp4"
)

// ValidateFormat checks if a format is supported.
func ValidateFormat(f Format) bool {
	return f == FormatAudio || f == FormatVideo
}

// DownloadRequest describes one download attempt. It is constructed per
// attempt and never persisted.
type DownloadRequest struct {
	URL            string `json:"url"`
	Destination    string `json:"destination"`
	Format         Format `json:"format"`
	Quality        string `json:"quality"`
	EmbedThumbnail bool   `json:"embed_thumbnail"`
}

// Validate checks the request fields that can be verified without I/O.
func (r *DownloadRequest) Validate() error {
	if r.URL == "" {
		return &ValidationError{Message: "url is required"}
	}
	if r.Destination == "" {
		return &ValidationError{Message: "destination directory is required"}
	}
	if !ValidateFormat(r.Format) {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s", r.Format)}
	}
	return nil
}

// AudioBitrate returns the numeric bitrate for an audio request, defaulting
// to the highest tier when the quality string is unrecognized.
func (r *DownloadRequest) AudioBitrate() string {
	q := strings.TrimSuffix(r.Quality, "kbps")
	switch q {
	case "128", "192", "256", "320":
		return q
	default:
		return "320"
	}
}

// FormatSelector builds the collaborator's format selection expression for
// the request. Video selectors degrade gracefully: the requested tier comes
// first, then every lower tier in descending order, ending with any
// available mp4. Audio always selects the best available source; transcoding
// to the requested bitrate happens in post-processing.
func (r *DownloadRequest) FormatSelector() string {
	if r.Format == FormatAudio {
		return "bestaudio/best"
	}
	return videoFormatSelector(VideoQuality(r.Quality))
}

func videoFormatSelector(quality VideoQuality) string {
	start := -1
	for i, q := range VideoQualityLadder {
		if q == quality {
			start = i
			break
		}
	}
	if start < 0 {
		return "best[ext=mp4]"
	}

	var parts []string
	for i := start; i >= 0; i-- {
		h := VideoQualityLadder[i].HeightCeiling()
		parts = append(parts,
			fmt.Sprintf("bestvideo[height=%d][ext=mp4]+bestaudio[ext=m4a]", h),
			fmt.Sprintf("best[height=%d][ext=mp4]", h))
	}
	parts = append(parts, "best[ext=mp4]")
	return strings.Join(parts, "/")
}
