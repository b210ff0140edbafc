package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
	"github.com/yourusername/tube-fetch-go/pkg/logger"
)

// Task is a handle to an in-flight download.
type Task struct {
	ID      string
	URL     string
	started time.Time
	done    chan struct{}
}

// Done is closed when the download reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Age returns how long the task has been running.
func (t *Task) Age() time.Duration {
	return time.Since(t.started)
}

// DownloadEngine runs at most one download at a time. A second StartDownload
// while busy is rejected with a conflict, never queued. Cancellation is
// advisory: it flips a flag that is honored between phases, but an in-flight
// transfer runs to completion and still delivers its own terminal event.
type DownloadEngine struct {
	fetcher  domain.Fetcher
	embedder domain.CoverEmbedder
	history  domain.HistoryStore
	journal  domain.JournalRepository
	notifier *infrastructure.NotificationService
	events   *logger.MultiLogger
	logger   *zap.Logger

	mu              sync.Mutex
	cb              domain.Callback
	busy            bool
	cancelRequested bool
	current         *Task
}

// NewDownloadEngine creates a new download engine
func NewDownloadEngine(
	fetcher domain.Fetcher,
	embedder domain.CoverEmbedder,
	history domain.HistoryStore,
	journal domain.JournalRepository,
	notifier *infrastructure.NotificationService,
	events *logger.MultiLogger,
	log *zap.Logger,
) *DownloadEngine {
	return &DownloadEngine{
		fetcher:  fetcher,
		embedder: embedder,
		history:  history,
		journal:  journal,
		notifier: notifier,
		events:   events,
		logger:   log,
	}
}

// SetCallback replaces the event consumer for subsequent events.
func (e *DownloadEngine) SetCallback(cb domain.Callback) {
	e.mu.Lock()
	e.cb = cb
	e.mu.Unlock()
}

// SwapCallback installs cb and returns the previous consumer so a caller can
// temporarily intercept the event stream and restore it afterwards.
func (e *DownloadEngine) SwapCallback(cb domain.Callback) domain.Callback {
	e.mu.Lock()
	prev := e.cb
	e.cb = cb
	e.mu.Unlock()
	return prev
}

// Busy reports whether a download is in flight.
func (e *DownloadEngine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// CancelRequested reports whether an advisory cancel is pending.
func (e *DownloadEngine) CancelRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelRequested
}

// CurrentTask returns the in-flight task, or nil when idle.
func (e *DownloadEngine) CurrentTask() *Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// RequestCancel flags the current download for cancellation and reports
// whether one was in flight. The flag is honored at the next phase boundary.
func (e *DownloadEngine) RequestCancel() bool {
	e.mu.Lock()
	if !e.busy {
		e.mu.Unlock()
		return false
	}
	e.cancelRequested = true
	e.mu.Unlock()

	e.emit(domain.Cancelled{Message: "Cancelling download..."})
	e.logger.Info("Download cancellation requested")
	return true
}

// ForceIdle clears the busy state without waiting for the worker. It exists
// for recovery from a worker that died without reporting, and must not be
// called while one is known to be alive.
func (e *DownloadEngine) ForceIdle() {
	e.mu.Lock()
	e.busy = false
	e.cancelRequested = false
	e.current = nil
	e.mu.Unlock()
}

// StartDownload validates the request and launches the download worker,
// returning its task handle.
func (e *DownloadEngine) StartDownload(ctx context.Context, req *domain.DownloadRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return nil, &domain.ConflictError{Message: "a download is already in progress"}
	}
	task := &Task{
		ID:      uuid.New().String(),
		URL:     req.URL,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	e.busy = true
	e.cancelRequested = false
	e.current = task
	e.mu.Unlock()

	go e.run(ctx, req, task)
	return task, nil
}

func (e *DownloadEngine) run(ctx context.Context, req *domain.DownloadRequest, task *Task) {
	defer func() {
		e.mu.Lock()
		e.busy = false
		e.cancelRequested = false
		e.current = nil
		e.mu.Unlock()
		close(task.done)
	}()

	entry := domain.NewJournalEntry(req)
	if err := e.journal.Create(entry); err != nil {
		e.logger.Warn("Failed to journal download start", zap.Error(err))
	}

	e.events.LogEngineEvent("download_started",
		zap.String("task_id", task.ID),
		zap.String("url", req.URL),
		zap.String("format", string(req.Format)),
		zap.String("quality", req.Quality))

	e.emit(domain.Starting{Message: "Preparing download..."})

	if err := os.MkdirAll(req.Destination, 0755); err != nil {
		e.fail(entry, task, &domain.DownloadError{URL: req.URL,
			Err: fmt.Errorf("cannot create destination directory: %w", err)})
		return
	}

	e.emit(domain.Extracting{Message: "Fetching video information..."})

	info, err := e.fetcher.Fetch(ctx, req.URL, domain.FetchOptions{SkipDownload: true})
	if err != nil {
		e.fail(entry, task, err)
		return
	}
	video := buildVideo(info)

	if e.cancelled() {
		e.finishCancelled(entry, task)
		return
	}

	opts := domain.FetchOptions{
		OutputTemplate: filepath.Join(req.Destination, domain.SanitizeFilename(video.Title)+".%(ext)s"),
		FormatSelector: req.FormatSelector(),
		Progress:       e.progressFunc(),
	}
	if req.Format == domain.FormatAudio {
		opts.ExtractAudio = true
		opts.AudioCodec = "mp3"
		opts.AudioBitrate = req.AudioBitrate()
	} else {
		opts.MergeFormat = "mp4"
	}

	result, err := e.fetcher.Fetch(ctx, req.URL, opts)
	if err != nil {
		e.fail(entry, task, &domain.DownloadError{URL: req.URL, Err: err})
		return
	}
	filePath := result.Filepath
	if filePath == "" {
		// Some collaborators never report a destination; fall back to the
		// path the output template would have produced.
		ext := "mp4"
		if req.Format == domain.FormatAudio {
			ext = "mp3"
		}
		filePath = strings.TrimSuffix(opts.OutputTemplate, ".%(ext)s") + "." + ext
	}

	if opts.ExtractAudio && req.EmbedThumbnail && e.embedder != nil && video.Thumbnail != "" {
		e.emit(domain.Processing{Percent: 100, Filename: filepath.Base(filePath)})
		if err := e.embedder.EmbedCover(filePath, video.Thumbnail); err != nil {
			// Cover art is cosmetic, the download itself succeeded
			e.logger.Warn("Failed to embed cover art",
				zap.String("file", filePath),
				zap.Error(err))
		}
	}

	e.history.AddRecord(video, req, filePath)

	entry.MarkCompleted(filePath)
	if err := e.journal.Update(entry); err != nil {
		e.logger.Warn("Failed to journal download completion", zap.Error(err))
	}

	e.events.LogEngineEvent("download_completed",
		zap.String("task_id", task.ID),
		zap.String("url", req.URL),
		zap.String("file", filePath))

	e.emit(domain.Complete{
		Message:  "Download complete",
		Filename: filePath,
		Video:    video,
	})
	e.notifier.NotifyDownloadCompleted(video.Title)
}

func (e *DownloadEngine) cancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelRequested
}

// finishCancelled records the cancellation without emitting: the Cancelled
// event was already delivered by RequestCancel.
func (e *DownloadEngine) finishCancelled(entry *domain.JournalEntry, task *Task) {
	entry.MarkCancelled()
	if err := e.journal.Update(entry); err != nil {
		e.logger.Warn("Failed to journal cancellation", zap.Error(err))
	}
	e.events.LogEngineEvent("download_cancelled",
		zap.String("task_id", task.ID),
		zap.String("url", entry.URL))
}

func (e *DownloadEngine) fail(entry *domain.JournalEntry, task *Task, err error) {
	entry.MarkFailed(err)
	if uerr := e.journal.Update(entry); uerr != nil {
		e.logger.Warn("Failed to journal failure", zap.Error(uerr))
	}

	e.events.LogAppError("download failed",
		zap.String("task_id", task.ID),
		zap.String("url", entry.URL),
		zap.Error(err))
	e.logger.Error("Download failed",
		zap.String("url", entry.URL),
		zap.Error(err))

	e.emit(domain.Failure{Message: err.Error()})
	e.notifier.NotifyDownloadFailed(entry.URL)
}

// progressFunc translates raw collaborator progress into events.
func (e *DownloadEngine) progressFunc() domain.ProgressFunc {
	return func(u domain.ProgressUpdate) {
		switch u.Status {
		case domain.ProgressFinished:
			e.emit(domain.Processing{
				Percent:  100,
				Filename: filepath.Base(u.Filename),
			})
		case domain.ProgressDownloading:
			e.emit(domain.Downloading{
				Percent:    parsePercent(u.PercentStr),
				Speed:      u.SpeedStr,
				Downloaded: u.DownloadedStr,
				Total:      u.TotalStr,
				ETA:        u.ETAStr,
				Filename:   filepath.Base(u.Filename),
				Message:    fmt.Sprintf("Downloading... %s", u.PercentStr),
			})
		}
	}
}

func (e *DownloadEngine) emit(ev domain.Event) {
	e.mu.Lock()
	cb := e.cb
	e.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// parsePercent parses a collaborator percent string like "42.8%". Malformed
// input maps to 0 rather than failing the stream.
func parsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
