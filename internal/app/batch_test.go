package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

func newTestBatch(t *testing.T, engine *DownloadEngine) *BatchOrchestrator {
	t.Helper()
	return NewBatchOrchestrator(engine, newTestNotifier(), newTestEvents(t), zap.NewNop())
}

func waitForBatch(t *testing.T, b *BatchOrchestrator) {
	t.Helper()
	require.Eventually(t, func() bool { return !b.Processing() },
		5*time.Second, 10*time.Millisecond, "batch did not finish in time")
}

func batchOptions(dest string) BatchOptions {
	return BatchOptions{
		Destination: dest,
		Format:      domain.FormatVideo,
		Quality:     "720p",
	}
}

func TestBatchOrchestrator_DownloadsAllItemsInOrder(t *testing.T) {
	fetcher := &stubFetcher{}
	engine, history, _ := newTestEngine(t, fetcher)
	batch := newTestBatch(t, engine)

	rec := &eventRecorder{}
	urls := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
		"https://www.youtube.com/watch?v=ccccccccccc",
	}
	require.NoError(t, batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), rec.callback()))
	waitForBatch(t, batch)

	// Items go through the engine one at a time, in list order. Each item
	// makes two fetch calls (metadata then transfer).
	require.Equal(t, 6, fetcher.callCount())
	assert.Equal(t, urls[0], fetcher.call(0).url)
	assert.Equal(t, urls[1], fetcher.call(2).url)
	assert.Equal(t, urls[2], fetcher.call(4).url)

	kinds := rec.kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, domain.EventStarting, kinds[0])
	assert.Equal(t, domain.EventBatchComplete, kinds[len(kinds)-1])

	done, ok := rec.last().(domain.BatchComplete)
	require.True(t, ok)
	assert.Equal(t, 3, done.CompletedVideos)
	assert.Equal(t, 3, done.TotalVideos)
	assert.True(t, done.Downloaded)

	assert.Len(t, history.GetRecords(0), 3)
}

func TestBatchOrchestrator_FailedItemDoesNotStopBatch(t *testing.T) {
	var downloads int32
	fetcher := &stubFetcher{
		downloadFn: func(url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
			if atomic.AddInt32(&downloads, 1) == 2 {
				return nil, errors.New("network error")
			}
			return &domain.MediaInfo{Filepath: "/tmp/out.mp4"}, nil
		},
	}
	engine, _, _ := newTestEngine(t, fetcher)
	batch := newTestBatch(t, engine)

	rec := &eventRecorder{}
	urls := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
		"https://www.youtube.com/watch?v=ccccccccccc",
	}
	require.NoError(t, batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), rec.callback()))
	waitForBatch(t, batch)

	done, ok := rec.last().(domain.BatchComplete)
	require.True(t, ok)
	assert.Equal(t, 2, done.CompletedVideos)
	assert.Equal(t, 3, done.TotalVideos)
	assert.True(t, done.Downloaded)

	// The per-item counters stay accurate around the failed middle item
	var progress []domain.BatchProgress
	for _, ev := range rec.all() {
		if p, ok := ev.(domain.BatchProgress); ok && p.AddToHistory {
			progress = append(progress, p)
		}
	}
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].CompletedVideos)
	assert.Equal(t, 2, progress[1].CompletedVideos)
	assert.Equal(t, 3, progress[1].CurrentVideo)
}

func TestBatchOrchestrator_SkipsEmptyURLs(t *testing.T) {
	fetcher := &stubFetcher{}
	engine, _, _ := newTestEngine(t, fetcher)
	batch := newTestBatch(t, engine)

	rec := &eventRecorder{}
	urls := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"",
		"https://www.youtube.com/watch?v=ccccccccccc",
	}
	require.NoError(t, batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), rec.callback()))
	waitForBatch(t, batch)

	assert.Equal(t, 4, fetcher.callCount())
	done, ok := rec.last().(domain.BatchComplete)
	require.True(t, ok)
	assert.Equal(t, 2, done.CompletedVideos)
	assert.Equal(t, 3, done.TotalVideos)
}

func TestBatchOrchestrator_RejectsEmptyBatch(t *testing.T) {
	engine, _, _ := newTestEngine(t, &stubFetcher{})
	batch := newTestBatch(t, engine)

	err := batch.StartBatch(context.Background(), nil, batchOptions(t.TempDir()), func(domain.Event) {})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestBatchOrchestrator_RejectsUnknownFormat(t *testing.T) {
	engine, _, _ := newTestEngine(t, &stubFetcher{})
	batch := newTestBatch(t, engine)

	opts := batchOptions(t.TempDir())
	opts.Format = "flac"
	err := batch.StartBatch(context.Background(),
		[]string{"https://www.youtube.com/watch?v=aaaaaaaaaaa"}, opts, func(domain.Event) {})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestBatchOrchestrator_SecondBatchConflicts(t *testing.T) {
	release := make(chan struct{})
	fetcher := &stubFetcher{
		downloadFn: func(url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
			<-release
			return &domain.MediaInfo{Filepath: "/tmp/out.mp4"}, nil
		},
	}
	engine, _, _ := newTestEngine(t, fetcher)
	batch := newTestBatch(t, engine)

	urls := []string{"https://www.youtube.com/watch?v=aaaaaaaaaaa"}
	require.NoError(t, batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), func(domain.Event) {}))

	err := batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), func(domain.Event) {})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	close(release)
	waitForBatch(t, batch)
}

func TestBatchOrchestrator_CancelBetweenItems(t *testing.T) {
	batchRef := make(chan *BatchOrchestrator, 1)
	fetcher := &stubFetcher{
		downloadFn: func(url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
			// Cancel mid-batch; the in-flight item still completes
			b := <-batchRef
			b.RequestCancel()
			batchRef <- b
			return &domain.MediaInfo{Filepath: "/tmp/out.mp4"}, nil
		},
	}
	engine, _, _ := newTestEngine(t, fetcher)
	batch := newTestBatch(t, engine)
	batchRef <- batch

	rec := &eventRecorder{}
	urls := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
	}
	require.NoError(t, batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), rec.callback()))
	waitForBatch(t, batch)

	// The first item finished, the second never started, and the terminal
	// event is Cancelled rather than BatchComplete
	assert.Equal(t, 2, fetcher.callCount())
	last := rec.last()
	require.NotNil(t, last)
	cancelled, ok := last.(domain.Cancelled)
	require.True(t, ok)
	assert.True(t, strings.Contains(cancelled.Message, "1 of 2"))
	for _, ev := range rec.all() {
		assert.NotEqual(t, domain.EventBatchComplete, ev.Kind())
	}
}

func TestBatchOrchestrator_CancelWhileIdleIsNoOp(t *testing.T) {
	engine, _, _ := newTestEngine(t, &stubFetcher{})
	batch := newTestBatch(t, engine)
	assert.False(t, batch.RequestCancel())
}

func TestBatchOrchestrator_RestoresEngineCallback(t *testing.T) {
	engine, _, _ := newTestEngine(t, &stubFetcher{})
	batch := newTestBatch(t, engine)

	outer := &eventRecorder{}
	engine.SetCallback(outer.callback())

	urls := []string{"https://www.youtube.com/watch?v=aaaaaaaaaaa"}
	require.NoError(t, batch.StartBatch(context.Background(), urls, batchOptions(t.TempDir()), func(domain.Event) {}))
	waitForBatch(t, batch)

	// During the batch the outer consumer saw nothing; after it, a solo
	// download reaches it again
	assert.Empty(t, outer.all())

	task, err := engine.StartDownload(context.Background(), videoRequest(t.TempDir()))
	require.NoError(t, err)
	waitForTask(t, task)
	require.NotEmpty(t, outer.all())
	assert.Equal(t, domain.EventComplete, outer.last().Kind())
}
