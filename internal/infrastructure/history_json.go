package infrastructure

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// JSONHistoryStore implements domain.HistoryStore on a single JSON file.
// The whole record list is held in memory and rewritten on every mutation.
type JSONHistoryStore struct {
	filePath string
	limit    int
	records  []domain.HistoryRecord
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewJSONHistoryStore creates a history store backed by filePath. A missing
// or unreadable file starts the store empty; a corrupt file is treated the
// same way so a bad write can never wedge the application.
func NewJSONHistoryStore(filePath string, limit int, log *zap.Logger) *JSONHistoryStore {
	if limit <= 0 {
		limit = 100
	}
	s := &JSONHistoryStore{
		filePath: filePath,
		limit:    limit,
		logger:   log,
	}
	s.load()
	return s
}

func (s *JSONHistoryStore) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read history file",
				zap.String("path", s.filePath),
				zap.Error(err))
		}
		s.records = []domain.HistoryRecord{}
		return
	}

	var records []domain.HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("History file is corrupt, starting empty",
			zap.String("path", s.filePath),
			zap.Error(err))
		s.records = []domain.HistoryRecord{}
		return
	}
	if len(records) > s.limit {
		records = records[:s.limit]
	}
	s.records = records
}

// persist writes the full record list back to disk. Failures are logged and
// swallowed; the in-memory view stays authoritative for this process.
func (s *JSONHistoryStore) persist() {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		s.logPersistError(err)
		return
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		s.logPersistError(err)
		return
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		s.logPersistError(err)
	}
}

func (s *JSONHistoryStore) logPersistError(err error) {
	perr := &domain.PersistenceError{Path: s.filePath, Err: err}
	s.logger.Error("Failed to persist history", zap.Error(perr))
}

// AddRecord prepends a completed download and trims the list to the cap.
// Records are keyed by the item id; redownloading the same video appends a
// second record under the same id.
func (s *JSONHistoryStore) AddRecord(video *domain.Video, req *domain.DownloadRequest, filePath string) domain.HistoryRecord {
	now := time.Now()
	record := domain.HistoryRecord{
		ID:           video.ID,
		Title:        video.Title,
		URL:          video.WebpageURL,
		Thumbnail:    video.Thumbnail,
		Duration:     video.DurationString,
		Format:       req.Format,
		Quality:      req.Quality,
		FilePath:     filePath,
		DownloadTime: now.Format("2006-01-02 15:04:05"),
		Timestamp:    now.Unix(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]domain.HistoryRecord{record}, s.records...)
	if len(s.records) > s.limit {
		s.records = s.records[:s.limit]
	}
	s.persist()

	return record
}

// GetRecords returns up to limit records, most recent first. A non-positive
// limit returns everything.
func (s *JSONHistoryStore) GetRecords(limit int) []domain.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.HistoryRecord, n)
	copy(out, s.records[:n])
	return out
}

// DeleteRecord removes the most recent record with the given id, reporting
// whether one existed. Ids are item ids and not unique, so only the first
// match goes.
func (s *JSONHistoryStore) DeleteRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.persist()
			return true
		}
	}
	return false
}

// ClearHistory removes all records.
func (s *JSONHistoryStore) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = []domain.HistoryRecord{}
	s.persist()
}
