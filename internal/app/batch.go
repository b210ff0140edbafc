package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
	"github.com/yourusername/tube-fetch-go/pkg/logger"
)

// staleTaskGrace is how long the orchestrator waits for a lingering engine
// task to finish before forcing the engine back to idle.
const staleTaskGrace = 1 * time.Second

// BatchOptions carries the per-batch download settings applied to every item.
type BatchOptions struct {
	Destination    string
	Format         domain.Format
	Quality        string
	EmbedThumbnail bool
}

// BatchOrchestrator drives the single-flight engine through a list of URLs,
// one at a time and in order. For each item it temporarily intercepts the
// engine's event stream, translating item events into batch events, and
// restores the previous consumer when the item finishes. Only one batch can
// run at a time.
type BatchOrchestrator struct {
	engine   *DownloadEngine
	notifier *infrastructure.NotificationService
	events   *logger.MultiLogger
	logger   *zap.Logger

	mu              sync.Mutex
	isProcessing    bool
	cancelRequested bool
}

// NewBatchOrchestrator creates a new batch orchestrator
func NewBatchOrchestrator(
	engine *DownloadEngine,
	notifier *infrastructure.NotificationService,
	events *logger.MultiLogger,
	log *zap.Logger,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		engine:   engine,
		notifier: notifier,
		events:   events,
		logger:   log,
	}
}

// Processing reports whether a batch is in flight.
func (b *BatchOrchestrator) Processing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isProcessing
}

// RequestCancel flags the batch for cancellation and reports whether one was
// in flight. The flag is honored between items: the current item, if any,
// runs to completion.
func (b *BatchOrchestrator) RequestCancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isProcessing {
		return false
	}
	b.cancelRequested = true
	return true
}

// StartBatch launches the batch worker. A second batch while one is running
// is rejected with a conflict, never queued.
func (b *BatchOrchestrator) StartBatch(ctx context.Context, urls []string, opts BatchOptions, callback domain.Callback) error {
	if len(urls) == 0 {
		return &domain.ValidationError{Message: "batch contains no URLs"}
	}
	if !domain.ValidateFormat(opts.Format) {
		return &domain.ValidationError{Message: fmt.Sprintf("unsupported format: %s", opts.Format)}
	}

	b.mu.Lock()
	if b.isProcessing {
		b.mu.Unlock()
		return &domain.ConflictError{Message: "a batch is already in progress"}
	}
	b.isProcessing = true
	b.cancelRequested = false
	b.mu.Unlock()

	go b.run(ctx, urls, opts, callback)
	return nil
}

func (b *BatchOrchestrator) run(ctx context.Context, urls []string, opts BatchOptions, callback domain.Callback) {
	defer func() {
		b.mu.Lock()
		b.isProcessing = false
		b.cancelRequested = false
		b.mu.Unlock()
	}()

	total := len(urls)
	completed := 0

	b.events.LogBatchEvent("batch_started", zap.Int("total", total))
	callback(domain.Starting{
		Message:     fmt.Sprintf("Starting batch of %d videos", total),
		TotalVideos: total,
	})

	for i, url := range urls {
		if b.cancelledNow() {
			b.events.LogBatchEvent("batch_cancelled",
				zap.Int("completed", completed),
				zap.Int("total", total))
			callback(domain.Cancelled{
				Message: fmt.Sprintf("Batch cancelled after %d of %d videos", completed, total),
			})
			return
		}

		if url == "" {
			b.logger.Warn("Skipping batch item without URL", zap.Int("position", i+1))
			continue
		}

		callback(domain.BatchProgress{
			Message:         fmt.Sprintf("Downloading video %d of %d", i+1, total),
			Progress:        float64(i) / float64(total),
			CurrentVideo:    i + 1,
			CompletedVideos: completed,
			TotalVideos:     total,
		})

		if b.downloadItem(ctx, url, i+1, total, completed, opts, callback) {
			completed++
		}
	}

	b.events.LogBatchEvent("batch_completed",
		zap.Int("completed", completed),
		zap.Int("total", total))
	callback(domain.BatchComplete{
		Message:         fmt.Sprintf("Batch complete: %d of %d videos downloaded", completed, total),
		CompletedVideos: completed,
		TotalVideos:     total,
		Downloaded:      completed > 0,
	})
	b.notifier.NotifyBatchComplete(completed, total)
}

// downloadItem runs one batch item through the engine and reports whether it
// completed successfully.
func (b *BatchOrchestrator) downloadItem(ctx context.Context, url string, position, total, completedSoFar int, opts BatchOptions, callback domain.Callback) bool {
	b.reclaimEngine()

	succeeded := false
	itemDone := make(chan struct{})

	prev := b.engine.SwapCallback(func(ev domain.Event) {
		switch e := ev.(type) {
		case domain.Complete:
			succeeded = true
			callback(domain.BatchProgress{
				Message:         fmt.Sprintf("Completed video %d of %d", position, total),
				Progress:        float64(position) / float64(total),
				CurrentVideo:    position,
				CompletedVideos: completedSoFar + 1,
				TotalVideos:     total,
				Filename:        e.Filename,
				Video:           e.Video,
				Format:          opts.Format,
				Quality:         opts.Quality,
				AddToHistory:    true,
			})
		case domain.Failure:
			b.logger.Warn("Batch item failed",
				zap.String("url", url),
				zap.Int("position", position),
				zap.String("error", e.Message))
			callback(domain.BatchProgress{
				Message:         fmt.Sprintf("Video %d of %d failed", position, total),
				Progress:        float64(position) / float64(total),
				CurrentVideo:    position,
				CompletedVideos: completedSoFar,
				TotalVideos:     total,
			})
		default:
			// Pass item-level progress straight through
			callback(ev)
		}
	})
	defer func() {
		<-itemDone
		b.engine.SetCallback(prev)
	}()

	req := &domain.DownloadRequest{
		URL:            url,
		Destination:    opts.Destination,
		Format:         opts.Format,
		Quality:        opts.Quality,
		EmbedThumbnail: opts.EmbedThumbnail,
	}

	task, err := b.engine.StartDownload(ctx, req)
	if err != nil {
		b.logger.Warn("Batch item rejected",
			zap.String("url", url),
			zap.Error(err))
		close(itemDone)
		return false
	}

	go func() {
		<-task.Done()
		close(itemDone)
	}()
	<-itemDone
	return succeeded
}

// reclaimEngine waits briefly for a lingering engine task to finish, then
// forces the engine idle so the batch can proceed.
func (b *BatchOrchestrator) reclaimEngine() {
	if !b.engine.Busy() {
		return
	}

	task := b.engine.CurrentTask()
	if task != nil {
		select {
		case <-task.Done():
			return
		case <-time.After(staleTaskGrace):
		}
	}

	if b.engine.Busy() {
		b.logger.Warn("Engine still busy before batch item, forcing idle")
		b.engine.ForceIdle()
	}
}

func (b *BatchOrchestrator) cancelledNow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelRequested
}
