package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// PlaylistExtractor resolves playlist metadata in two passes: a flat listing
// establishes the entries and their order, then each entry is resolved
// individually to fill in details the flat listing omits. Per-entry failures
// are logged and skipped, never abort the extraction; surviving entries keep
// their original order.
type PlaylistExtractor struct {
	fetcher domain.Fetcher
	timeout time.Duration
	logger  *zap.Logger
}

// NewPlaylistExtractor creates a new playlist extractor
func NewPlaylistExtractor(fetcher domain.Fetcher, timeout time.Duration, log *zap.Logger) *PlaylistExtractor {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &PlaylistExtractor{
		fetcher: fetcher,
		timeout: timeout,
		logger:  log,
	}
}

// GetPlaylistInfo resolves a playlist URL into an ordered entry list.
func (e *PlaylistExtractor) GetPlaylistInfo(ctx context.Context, rawURL string) (*domain.Playlist, error) {
	if !domain.IsPlaylistURL(rawURL) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("not a valid playlist URL: %s", rawURL)}
	}
	normalized := domain.NormalizePlaylistURL(rawURL)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	info, err := e.fetcher.Fetch(ctx, normalized, domain.FetchOptions{
		SkipDownload:   true,
		FlatExtraction: true,
	})
	if err != nil {
		return nil, err
	}
	if len(info.Entries) == 0 {
		return nil, &domain.ExtractionError{
			URL: normalized,
			Err: fmt.Errorf("playlist has no items or URL is not a playlist"),
		}
	}

	playlist := &domain.Playlist{
		ID:         info.ID,
		Title:      info.Title,
		Uploader:   info.Uploader,
		WebpageURL: normalized,
		Entries:    make([]domain.PlaylistEntry, 0, len(info.Entries)),
	}

	for _, stub := range info.Entries {
		entry, ok := e.resolveEntry(ctx, stub)
		if !ok {
			continue
		}
		playlist.Entries = append(playlist.Entries, entry)
	}
	playlist.VideoCount = len(playlist.Entries)

	e.logger.Info("Extracted playlist",
		zap.String("id", playlist.ID),
		zap.String("title", playlist.Title),
		zap.Int("entries", playlist.VideoCount))
	return playlist, nil
}

// resolveEntry fetches full metadata for one flat entry. Entries without a
// resolvable URL and entries whose detail pass fails are dropped.
func (e *PlaylistExtractor) resolveEntry(ctx context.Context, stub domain.MediaInfo) (domain.PlaylistEntry, bool) {
	entry := domain.PlaylistEntry{
		ID:         stub.ID,
		Title:      stub.Title,
		WebpageURL: stub.WebpageURL,
		Duration:   int(stub.Duration),
		Thumbnail:  stub.Thumbnail,
	}
	if entry.WebpageURL == "" && entry.ID != "" {
		entry.WebpageURL = domain.VideoURLFromID(entry.ID)
	}
	if entry.WebpageURL == "" {
		e.logger.Warn("Skipping playlist entry without a resolvable URL",
			zap.String("title", entry.Title))
		return domain.PlaylistEntry{}, false
	}

	detail, err := e.fetcher.Fetch(ctx, entry.WebpageURL, domain.FetchOptions{SkipDownload: true})
	if err != nil {
		e.logger.Warn("Skipping playlist entry, detail fetch failed",
			zap.String("id", entry.ID),
			zap.Error(err))
		return domain.PlaylistEntry{}, false
	}

	if detail.Title != "" {
		entry.Title = detail.Title
	}
	if detail.Duration > 0 {
		entry.Duration = int(detail.Duration)
	}
	if detail.Thumbnail != "" {
		entry.Thumbnail = detail.Thumbnail
	}
	return entry, true
}

// GetPlaylistInfoAsync resolves a playlist on a fresh goroutine, reporting
// through the callback: Starting first, then exactly one of
// PlaylistExtracted or Failure.
func (e *PlaylistExtractor) GetPlaylistInfoAsync(ctx context.Context, rawURL string, callback domain.Callback) {
	go func() {
		callback(domain.Starting{Message: "Fetching playlist information..."})

		playlist, err := e.GetPlaylistInfo(ctx, rawURL)
		if err != nil {
			callback(domain.Failure{Message: err.Error()})
			return
		}
		callback(domain.PlaylistExtracted{Playlist: playlist})
	}()
}
