package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// MetadataExtractor resolves single-video metadata through the fetcher and
// caches results by URL. Cached entries never expire; a video's published
// renditions do not change within a session.
type MetadataExtractor struct {
	fetcher domain.Fetcher
	timeout time.Duration
	logger  *zap.Logger
	client  *http.Client

	mu    sync.RWMutex
	cache map[string]*domain.Video
}

// NewMetadataExtractor creates a new metadata extractor
func NewMetadataExtractor(fetcher domain.Fetcher, timeout time.Duration, log *zap.Logger) *MetadataExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &MetadataExtractor{
		fetcher: fetcher,
		timeout: timeout,
		logger:  log,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   make(map[string]*domain.Video),
	}
}

// GetVideoInfo resolves metadata for a single video URL, serving repeat
// lookups from cache.
func (e *MetadataExtractor) GetVideoInfo(ctx context.Context, rawURL string) (*domain.Video, error) {
	if !domain.IsVideoURL(rawURL) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("not a valid video URL: %s", rawURL)}
	}

	e.mu.RLock()
	cached, ok := e.cache[rawURL]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	info, err := e.fetcher.Fetch(ctx, rawURL, domain.FetchOptions{SkipDownload: true})
	if err != nil {
		return nil, err
	}

	video := buildVideo(info)

	e.mu.Lock()
	e.cache[rawURL] = video
	e.mu.Unlock()

	e.logger.Debug("Extracted video metadata",
		zap.String("url", rawURL),
		zap.String("title", video.Title))
	return video, nil
}

// GetVideoInfoAsync resolves metadata on a fresh goroutine, reporting through
// the callback: Extracting first, then exactly one of Complete or Failure.
func (e *MetadataExtractor) GetVideoInfoAsync(ctx context.Context, rawURL string, callback domain.Callback) {
	go func() {
		callback(domain.Extracting{Message: "Fetching video information..."})

		video, err := e.GetVideoInfo(ctx, rawURL)
		if err != nil {
			callback(domain.Failure{Message: err.Error()})
			return
		}
		callback(domain.Complete{Video: video})
	}()
}

// DownloadThumbnail fetches a thumbnail image. When the decoded image exceeds
// maxW or maxH it is scaled down to fit both bounds, preserving aspect ratio
// by the smaller of the two scale factors; images already inside the bounds,
// or fetched with non-positive bounds, pass through as received.
func (e *MetadataExtractor) DownloadThumbnail(ctx context.Context, url string, maxW, maxH int) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	if maxW <= 0 || maxH <= 0 {
		return data, resp.Header.Get("Content-Type"), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode thumbnail: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return data, resp.Header.Get("Content-Type"), nil
	}

	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	scaled := resize.Resize(uint(float64(w)*scale), uint(float64(h)*scale), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// buildVideo converts raw collaborator metadata into the immutable
// descriptor, projecting the format list onto the quality ladders.
func buildVideo(info *domain.MediaInfo) *domain.Video {
	duration := int(info.Duration)
	return &domain.Video{
		ID:             info.ID,
		Title:          info.Title,
		Description:    info.Description,
		Thumbnail:      info.Thumbnail,
		Duration:       duration,
		DurationString: domain.FormatDuration(duration),
		ViewCount:      info.ViewCount,
		WebpageURL:     info.WebpageURL,
		Uploader:       info.Uploader,
		UploadDate:     info.UploadDate,
		Formats:        projectFormats(info.Formats),
	}
}

// projectFormats reduces the rendition list to at most one option per quality
// tier. A rendition lands in the lowest tier whose ceiling admits it, and a
// later rendition replaces an earlier one only when strictly better, so ties
// keep the first seen.
func projectFormats(formats []domain.SourceFormat) domain.FormatTable {
	table := domain.FormatTable{
		Video: make(map[domain.VideoQuality]domain.FormatOption),
		Audio: make(map[domain.AudioQuality]domain.FormatOption),
	}

	for _, f := range formats {
		if isVideoRendition(f) {
			tier, ok := videoTierFor(f.Height)
			if !ok {
				continue
			}
			existing, seen := table.Video[tier]
			if !seen || f.TBR > existing.TBR {
				table.Video[tier] = toFormatOption(f)
			}
			continue
		}

		if isAudioRendition(f) {
			tier, ok := audioTierFor(f.ABR)
			if !ok {
				continue
			}
			existing, seen := table.Audio[tier]
			if !seen || f.ABR > existing.ABR {
				table.Audio[tier] = toFormatOption(f)
			}
		}
	}

	return table
}

func isVideoRendition(f domain.SourceFormat) bool {
	return f.Ext == "mp4" && f.VCodec != "" && f.VCodec != "none" && f.Height > 0
}

func isAudioRendition(f domain.SourceFormat) bool {
	return f.ACodec != "" && f.ACodec != "none" &&
		(f.VCodec == "" || f.VCodec == "none") && f.ABR > 0
}

// videoTierFor returns the lowest ladder tier whose ceiling admits height.
func videoTierFor(height int) (domain.VideoQuality, bool) {
	for _, q := range domain.VideoQualityLadder {
		if height <= q.HeightCeiling() {
			return q, true
		}
	}
	return "", false
}

// audioTierFor returns the lowest ladder tier whose ceiling admits abr.
func audioTierFor(abr float64) (domain.AudioQuality, bool) {
	for _, q := range domain.AudioQualityLadder {
		if abr <= q.BitrateCeiling() {
			return q, true
		}
	}
	// Above the top ceiling still belongs to the top tier
	return domain.AudioQualityLadder[len(domain.AudioQualityLadder)-1], true
}

func toFormatOption(f domain.SourceFormat) domain.FormatOption {
	resolution := ""
	if f.Width > 0 && f.Height > 0 {
		resolution = fmt.Sprintf("%dx%d", f.Width, f.Height)
	}
	opt := domain.FormatOption{
		FormatID:   f.FormatID,
		Ext:        f.Ext,
		Width:      f.Width,
		Height:     f.Height,
		Resolution: resolution,
		Filesize:   f.Filesize,
		VCodec:     f.VCodec,
		ACodec:     f.ACodec,
		TBR:        f.TBR,
		ABR:        f.ABR,
	}
	if f.Filesize > 0 {
		opt.FilesizeStr = domain.FormatFileSize(f.Filesize)
	}
	return opt
}
