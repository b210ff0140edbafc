package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

func historyFixtures() (*domain.Video, *domain.DownloadRequest) {
	video := &domain.Video{
		ID:             "dQw4w9WgXcQ",
		Title:          "Test Video",
		WebpageURL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Thumbnail:      "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq720.jpg",
		DurationString: "03:32",
	}
	req := &domain.DownloadRequest{
		URL:         video.WebpageURL,
		Destination: "/tmp/downloads",
		Format:      domain.FormatVideo,
		Quality:     "720p",
	}
	return video, req
}

func TestJSONHistoryStore_AddAndRetrieve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewJSONHistoryStore(path, 100, zap.NewNop())

	video, req := historyFixtures()
	record := store.AddRecord(video, req, "/tmp/downloads/Test Video.mp4")

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Test Video", record.Title)
	assert.Equal(t, video.WebpageURL, record.URL)
	assert.Equal(t, "/tmp/downloads/Test Video.mp4", record.FilePath)
	assert.NotZero(t, record.Timestamp)

	records := store.GetRecords(0)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
}

func TestJSONHistoryStore_MostRecentFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewJSONHistoryStore(path, 100, zap.NewNop())

	video, req := historyFixtures()
	for i := 0; i < 3; i++ {
		v := *video
		v.Title = fmt.Sprintf("Video %d", i)
		store.AddRecord(&v, req, fmt.Sprintf("/tmp/%d.mp4", i))
	}

	records := store.GetRecords(0)
	require.Len(t, records, 3)
	assert.Equal(t, "Video 2", records[0].Title)
	assert.Equal(t, "Video 0", records[2].Title)

	limited := store.GetRecords(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "Video 2", limited[0].Title)
}

func TestJSONHistoryStore_EnforcesCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewJSONHistoryStore(path, 5, zap.NewNop())

	video, req := historyFixtures()
	for i := 0; i < 8; i++ {
		v := *video
		v.Title = fmt.Sprintf("Video %d", i)
		store.AddRecord(&v, req, "/tmp/out.mp4")
	}

	records := store.GetRecords(0)
	require.Len(t, records, 5)
	// Oldest records fall off the end
	assert.Equal(t, "Video 7", records[0].Title)
	assert.Equal(t, "Video 3", records[4].Title)
}

func TestJSONHistoryStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	video, req := historyFixtures()

	store := NewJSONHistoryStore(path, 100, zap.NewNop())
	record := store.AddRecord(video, req, "/tmp/out.mp4")

	reopened := NewJSONHistoryStore(path, 100, zap.NewNop())
	records := reopened.GetRecords(0)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, record.DownloadTime, records[0].DownloadTime)
}

func TestJSONHistoryStore_ReloadTrimsToLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	video, req := historyFixtures()

	store := NewJSONHistoryStore(path, 100, zap.NewNop())
	for i := 0; i < 10; i++ {
		store.AddRecord(video, req, "/tmp/out.mp4")
	}

	// A tighter cap on reload trims the loaded list
	reopened := NewJSONHistoryStore(path, 4, zap.NewNop())
	assert.Len(t, reopened.GetRecords(0), 4)
}

func TestJSONHistoryStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	store := NewJSONHistoryStore(path, 100, zap.NewNop())
	assert.Empty(t, store.GetRecords(0))
}

func TestJSONHistoryStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := NewJSONHistoryStore(path, 100, zap.NewNop())
	assert.Empty(t, store.GetRecords(0))

	// The store recovers: new records persist over the corrupt content
	video, req := historyFixtures()
	store.AddRecord(video, req, "/tmp/out.mp4")
	reopened := NewJSONHistoryStore(path, 100, zap.NewNop())
	assert.Len(t, reopened.GetRecords(0), 1)
}

func TestJSONHistoryStore_DeleteRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewJSONHistoryStore(path, 100, zap.NewNop())

	video, req := historyFixtures()
	record := store.AddRecord(video, req, "/tmp/out.mp4")
	other := *video
	other.ID = "abc123def45"
	store.AddRecord(&other, req, "/tmp/other.mp4")

	assert.True(t, store.DeleteRecord(record.ID))
	assert.False(t, store.DeleteRecord(record.ID))
	assert.False(t, store.DeleteRecord("no-such-id"))
	assert.Len(t, store.GetRecords(0), 1)
}

func TestJSONHistoryStore_RecordsKeyedByItemID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewJSONHistoryStore(path, 100, zap.NewNop())

	video, req := historyFixtures()
	record := store.AddRecord(video, req, "/tmp/first.mp4")
	assert.Equal(t, video.ID, record.ID)

	// Redownloading appends a second record under the same id
	store.AddRecord(video, req, "/tmp/second.mp4")
	records := store.GetRecords(0)
	require.Len(t, records, 2)
	assert.Equal(t, video.ID, records[0].ID)
	assert.Equal(t, video.ID, records[1].ID)

	// Delete removes only the most recent match
	require.True(t, store.DeleteRecord(video.ID))
	records = store.GetRecords(0)
	require.Len(t, records, 1)
	assert.Equal(t, "/tmp/first.mp4", records[0].FilePath)
}

func TestJSONHistoryStore_ClearHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewJSONHistoryStore(path, 100, zap.NewNop())

	video, req := historyFixtures()
	store.AddRecord(video, req, "/tmp/out.mp4")
	store.ClearHistory()

	assert.Empty(t, store.GetRecords(0))
	reopened := NewJSONHistoryStore(path, 100, zap.NewNop())
	assert.Empty(t, reopened.GetRecords(0))
}
