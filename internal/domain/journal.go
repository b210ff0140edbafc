package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalStatus is the lifecycle state of a journaled download attempt.
type JournalStatus string

const (
	JournalProcessing JournalStatus = "processing"
	JournalCompleted  JournalStatus = "completed"
	JournalFailed     JournalStatus = "failed"
	JournalCancelled  JournalStatus = "cancelled"
)

// JournalEntry records a single download attempt made by the engine,
// independent of the user-facing history (which keeps successes only).
type JournalEntry struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	URL          string        `json:"url" gorm:"not null"`
	Format       Format        `json:"format"`
	Quality      string        `json:"quality"`
	Destination  string        `json:"destination"`
	Status       JournalStatus `json:"status" gorm:"not null;index"`
	FilePath     string        `json:"file_path,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewJournalEntry creates an entry for a starting download.
func NewJournalEntry(req *DownloadRequest) *JournalEntry {
	return &JournalEntry{
		ID:          uuid.New().String(),
		URL:         req.URL,
		Format:      req.Format,
		Quality:     req.Quality,
		Destination: req.Destination,
		Status:      JournalProcessing,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// MarkCompleted transitions the entry to completed.
func (e *JournalEntry) MarkCompleted(filePath string) {
	e.Status = JournalCompleted
	e.FilePath = filePath
	now := time.Now()
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// MarkFailed transitions the entry to failed.
func (e *JournalEntry) MarkFailed(err error) {
	e.Status = JournalFailed
	e.ErrorMessage = err.Error()
	e.UpdatedAt = time.Now()
}

// MarkCancelled transitions the entry to cancelled.
func (e *JournalEntry) MarkCancelled() {
	e.Status = JournalCancelled
	e.UpdatedAt = time.Now()
}

// JournalStats summarizes journal contents by status.
type JournalStats struct {
	Total      int64 `json:"total"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}

// JournalRepository persists download attempts.
type JournalRepository interface {
	Create(entry *JournalEntry) error
	Update(entry *JournalEntry) error
	FindByID(id string) (*JournalEntry, error)
	FindRecent(limit int) ([]*JournalEntry, error)
	CountByStatus(status JournalStatus) (int64, error)
	GetStats() (*JournalStats, error)
}
