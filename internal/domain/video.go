package domain

import (
	"fmt"
	"regexp"
)

// VideoQuality is a human-readable video resolution tier.
type VideoQuality string

const (
	Quality360p  VideoQuality = "360p"
	Quality480p  VideoQuality = "480p"
	Quality720p  VideoQuality = "720p"
	Quality1080p VideoQuality = "1080p"
	Quality2K    VideoQuality = "2K"
	Quality4K    VideoQuality = "4K"
)

// AudioQuality is a human-readable audio bitrate tier.
type AudioQuality string

const (
	Audio128kbps AudioQuality = "128kbps"
	Audio192kbps AudioQuality = "192kbps"
	Audio256kbps AudioQuality = "256kbps"
	Audio320kbps AudioQuality = "320kbps"
)

// VideoQualityLadder lists video tiers from lowest to highest. The order is
// meaningful: degradation walks it downward.
var VideoQualityLadder = []VideoQuality{
	Quality360p, Quality480p, Quality720p, Quality1080p, Quality2K, Quality4K,
}

// AudioQualityLadder lists audio tiers from lowest to highest.
var AudioQualityLadder = []AudioQuality{
	Audio128kbps, Audio192kbps, Audio256kbps, Audio320kbps,
}

// HeightCeiling returns the maximum pixel height admitted into the tier.
func (q VideoQuality) HeightCeiling() int {
	switch q {
	case Quality360p:
		return 360
	case Quality480p:
		return 480
	case Quality720p:
		return 720
	case Quality1080p:
		return 1080
	case Quality2K:
		return 1440
	case Quality4K:
		return 2160
	default:
		return 0
	}
}

// BitrateCeiling returns the maximum audio bitrate (kbps) admitted into the tier.
func (q AudioQuality) BitrateCeiling() float64 {
	switch q {
	case Audio128kbps:
		return 128
	case Audio192kbps:
		return 192
	case Audio256kbps:
		return 256
	case Audio320kbps:
		return 320
	default:
		return 0
	}
}

// FormatOption describes a single concrete rendition selected for a quality tier.
type FormatOption struct {
	FormatID    string  `json:"format_id"`
	Ext         string  `json:"ext"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	Resolution  string  `json:"resolution,omitempty"`
	Filesize    int64   `json:"filesize,omitempty"`
	FilesizeStr string  `json:"filesize_str,omitempty"`
	VCodec      string  `json:"vcodec,omitempty"`
	ACodec      string  `json:"acodec,omitempty"`
	TBR         float64 `json:"tbr,omitempty"`
	ABR         float64 `json:"abr,omitempty"`
}

// FormatTable maps quality tiers to the best rendition found for each.
type FormatTable struct {
	Video map[VideoQuality]FormatOption `json:"mp4"`
	Audio map[AudioQuality]FormatOption `json:"mp3"`
}

// Video is an immutable descriptor of a single downloadable item, produced by
// the metadata extractor.
type Video struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Thumbnail      string      `json:"thumbnail,omitempty"`
	Duration       int         `json:"duration"`
	DurationString string      `json:"duration_string"`
	ViewCount      int64       `json:"view_count,omitempty"`
	WebpageURL     string      `json:"webpage_url"`
	Uploader       string      `json:"uploader,omitempty"`
	UploadDate     string      `json:"upload_date,omitempty"`
	Formats        FormatTable `json:"formats"`
}

// FormatDuration renders seconds as MM:SS, or HH:MM:SS above one hour.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatFileSize renders a byte count as a human readable string.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename replaces characters that are not allowed in filenames.
func SanitizeFilename(name string) string {
	return invalidFilenameChars.ReplaceAllString(name, "_")
}
