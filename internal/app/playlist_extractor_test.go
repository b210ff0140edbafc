package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

const testPlaylistURL = "https://www.youtube.com/playlist?list=PLtest123456"

func flatPlaylist(entries ...domain.MediaInfo) *domain.MediaInfo {
	return &domain.MediaInfo{
		ID:       "PLtest123456",
		Title:    "Test Playlist",
		Uploader: "Test Channel",
		Entries:  entries,
	}
}

func TestPlaylistExtractor_RejectsNonPlaylistURL(t *testing.T) {
	fetcher := &stubFetcher{}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	_, err := extractor.GetPlaylistInfo(context.Background(), testVideoURL)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, fetcher.callCount())
}

func TestPlaylistExtractor_TwoPassResolution(t *testing.T) {
	flat := flatPlaylist(
		domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "First"},
		domain.MediaInfo{ID: "bbbbbbbbbbb", Title: "Second"},
	)
	flatSeen := 0
	fetcher := &stubFetcher{}
	fetcher.extractFn = func(url string) (*domain.MediaInfo, error) {
		if url == testPlaylistURL {
			flatSeen++
			return flat, nil
		}
		return &domain.MediaInfo{
			ID:       "detail",
			Title:    "Detailed: " + url,
			Duration: 100,
		}, nil
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	playlist, err := extractor.GetPlaylistInfo(context.Background(), testPlaylistURL)
	require.NoError(t, err)

	assert.Equal(t, 1, flatSeen)
	assert.Equal(t, "Test Playlist", playlist.Title)
	assert.Equal(t, 2, playlist.VideoCount)
	require.Len(t, playlist.Entries, 2)

	// Stub URLs come from the entry IDs; detail results win over stub fields
	assert.Equal(t, domain.VideoURLFromID("aaaaaaaaaaa"), playlist.Entries[0].WebpageURL)
	assert.Contains(t, playlist.Entries[0].Title, "Detailed:")
	assert.Equal(t, 100, playlist.Entries[0].Duration)

	// One flat + one detail per entry
	assert.Equal(t, 3, fetcher.callCount())
	assert.True(t, fetcher.call(0).opts.FlatExtraction)
	assert.False(t, fetcher.call(1).opts.FlatExtraction)
}

func TestPlaylistExtractor_FailedEntryIsSkipped(t *testing.T) {
	flat := flatPlaylist(
		domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "First"},
		domain.MediaInfo{ID: "bbbbbbbbbbb", Title: "Second"},
		domain.MediaInfo{ID: "ccccccccccc", Title: "Third"},
	)
	fetcher := &stubFetcher{}
	fetcher.extractFn = func(url string) (*domain.MediaInfo, error) {
		switch url {
		case testPlaylistURL:
			return flat, nil
		case domain.VideoURLFromID("bbbbbbbbbbb"):
			return nil, errors.New("private video")
		default:
			return &domain.MediaInfo{Title: "Detailed: " + url, Duration: 200}, nil
		}
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	playlist, err := extractor.GetPlaylistInfo(context.Background(), testPlaylistURL)
	require.NoError(t, err)

	// The failed middle entry is dropped, the rest keep their order and the
	// count tracks what survived
	require.Len(t, playlist.Entries, 2)
	assert.Equal(t, 2, playlist.VideoCount)
	assert.Equal(t, "aaaaaaaaaaa", playlist.Entries[0].ID)
	assert.Equal(t, "ccccccccccc", playlist.Entries[1].ID)
}

func TestPlaylistExtractor_SkipsEntryWithoutResolvableURL(t *testing.T) {
	flat := flatPlaylist(
		domain.MediaInfo{Title: "No ID At All"},
		domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "Real"},
	)
	fetcher := &stubFetcher{}
	fetcher.extractFn = func(url string) (*domain.MediaInfo, error) {
		if url == testPlaylistURL {
			return flat, nil
		}
		return &domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "Real"}, nil
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	playlist, err := extractor.GetPlaylistInfo(context.Background(), testPlaylistURL)
	require.NoError(t, err)
	require.Len(t, playlist.Entries, 1)
	assert.Equal(t, "aaaaaaaaaaa", playlist.Entries[0].ID)
}

func TestPlaylistExtractor_NormalizesURLBeforeFetch(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.extractFn = func(url string) (*domain.MediaInfo, error) {
		if url == domain.NormalizePlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLtest123456&index=3") {
			return flatPlaylist(domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "Only"}), nil
		}
		return &domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "Only"}, nil
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	watchURL := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLtest123456&index=3"
	playlist, err := extractor.GetPlaylistInfo(context.Background(), watchURL)
	require.NoError(t, err)

	assert.Equal(t, domain.NormalizePlaylistURL(watchURL), fetcher.call(0).url)
	assert.Equal(t, domain.NormalizePlaylistURL(watchURL), playlist.WebpageURL)
}

func TestPlaylistExtractor_EmptyFlatListingIsError(t *testing.T) {
	fetcher := &stubFetcher{
		extractFn: func(url string) (*domain.MediaInfo, error) {
			return flatPlaylist(), nil
		},
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	_, err := extractor.GetPlaylistInfo(context.Background(), testPlaylistURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no items")
}

func TestPlaylistExtractor_FlatFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{
		extractFn: func(url string) (*domain.MediaInfo, error) {
			return nil, errors.New("playlist does not exist")
		},
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	_, err := extractor.GetPlaylistInfo(context.Background(), testPlaylistURL)
	require.Error(t, err)
}

func TestPlaylistExtractor_AsyncReportsPlaylistExtracted(t *testing.T) {
	fetcher := &stubFetcher{
		extractFn: func(url string) (*domain.MediaInfo, error) {
			if url == testPlaylistURL {
				return flatPlaylist(domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "Only"}), nil
			}
			return &domain.MediaInfo{ID: "aaaaaaaaaaa", Title: "Only"}, nil
		},
	}
	extractor := NewPlaylistExtractor(fetcher, time.Second, zap.NewNop())

	rec := &eventRecorder{}
	done := make(chan struct{})
	extractor.GetPlaylistInfoAsync(context.Background(), testPlaylistURL, func(ev domain.Event) {
		rec.callback()(ev)
		if ev.Kind() == domain.EventPlaylistExtracted || ev.Kind() == domain.EventError {
			close(done)
		}
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async playlist extraction did not finish")
	}

	kinds := rec.kinds()
	require.Len(t, kinds, 2)
	assert.Equal(t, domain.EventStarting, kinds[0])
	assert.Equal(t, domain.EventPlaylistExtracted, kinds[1])

	extracted, ok := rec.last().(domain.PlaylistExtracted)
	require.True(t, ok)
	require.NotNil(t, extracted.Playlist)
	assert.Equal(t, 1, extracted.Playlist.VideoCount)
}
