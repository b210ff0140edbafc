package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
	"github.com/yourusername/tube-fetch-go/pkg/logger"
)

// stubFetcher implements domain.Fetcher with scriptable behavior and records
// every call it receives.
type stubFetcher struct {
	mu    sync.Mutex
	calls []stubCall

	extractFn  func(url string) (*domain.MediaInfo, error)
	downloadFn func(url string, opts domain.FetchOptions) (*domain.MediaInfo, error)
}

type stubCall struct {
	url  string
	opts domain.FetchOptions
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, stubCall{url: url, opts: opts})
	f.mu.Unlock()

	if opts.SkipDownload {
		if f.extractFn != nil {
			return f.extractFn(url)
		}
		return &domain.MediaInfo{ID: "stub", Title: "Stub Video", WebpageURL: url, Duration: 10}, nil
	}
	if f.downloadFn != nil {
		return f.downloadFn(url, opts)
	}
	return &domain.MediaInfo{Filepath: "/tmp/stub.mp4"}, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *stubFetcher) call(i int) stubCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// mockHistory implements domain.HistoryStore in memory
type mockHistory struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
}

func (m *mockHistory) AddRecord(video *domain.Video, req *domain.DownloadRequest, filePath string) domain.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := domain.HistoryRecord{
		ID:       video.ID,
		Title:    video.Title,
		URL:      video.WebpageURL,
		Format:   req.Format,
		Quality:  req.Quality,
		FilePath: filePath,
	}
	m.records = append([]domain.HistoryRecord{record}, m.records...)
	return record
}

func (m *mockHistory) GetRecords(limit int) []domain.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *mockHistory) DeleteRecord(id string) bool { return false }
func (m *mockHistory) ClearHistory()               {}

// mockJournal implements domain.JournalRepository in memory
type mockJournal struct {
	mu      sync.Mutex
	entries []*domain.JournalEntry
}

func (m *mockJournal) Create(entry *domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockJournal) Update(entry *domain.JournalEntry) error { return nil }

func (m *mockJournal) FindByID(id string) (*domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockJournal) FindRecent(limit int) ([]*domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.JournalEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *mockJournal) CountByStatus(status domain.JournalStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockJournal) GetStats() (*domain.JournalStats, error) {
	return &domain.JournalStats{}, nil
}

// eventRecorder collects events delivered to a callback
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) callback() domain.Callback {
	return func(ev domain.Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	}
}

func (r *eventRecorder) kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind()
	}
	return kinds
}

func (r *eventRecorder) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) last() domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func newTestEvents(t *testing.T) *logger.MultiLogger {
	t.Helper()
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   "debug",
		LogsDir: t.TempDir(),
	})
	require.NoError(t, err)
	return multiLog
}

func newTestNotifier() *infrastructure.NotificationService {
	return infrastructure.NewNotificationService(
		&domain.NotificationConfig{Enabled: false}, zap.NewNop())
}

func newTestEngine(t *testing.T, fetcher domain.Fetcher) (*DownloadEngine, *mockHistory, *mockJournal) {
	t.Helper()
	history := &mockHistory{}
	journal := &mockJournal{}
	engine := NewDownloadEngine(fetcher, nil, history, journal, newTestNotifier(), newTestEvents(t), zap.NewNop())
	return engine, history, journal
}
