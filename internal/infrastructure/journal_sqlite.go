package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// SQLiteJournalRepository implements JournalRepository using SQLite
type SQLiteJournalRepository struct {
	db *gorm.DB
}

// NewSQLiteJournalRepository creates a new SQLite journal repository
func NewSQLiteJournalRepository(dbPath string) (*SQLiteJournalRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.JournalEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJournalRepository{db: db}, nil
}

// Create creates a new journal entry
func (r *SQLiteJournalRepository) Create(entry *domain.JournalEntry) error {
	return r.db.Create(entry).Error
}

// Update updates an existing journal entry
func (r *SQLiteJournalRepository) Update(entry *domain.JournalEntry) error {
	return r.db.Save(entry).Error
}

// FindByID finds a journal entry by ID
func (r *SQLiteJournalRepository) FindByID(id string) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	err := r.db.First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindRecent returns the most recently created entries, newest first
func (r *SQLiteJournalRepository) FindRecent(limit int) ([]*domain.JournalEntry, error) {
	var entries []*domain.JournalEntry
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

// CountByStatus returns the number of entries with the given status
func (r *SQLiteJournalRepository) CountByStatus(status domain.JournalStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.JournalEntry{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// GetStats returns journal statistics
func (r *SQLiteJournalRepository) GetStats() (*domain.JournalStats, error) {
	stats := &domain.JournalStats{}

	if err := r.db.Model(&domain.JournalEntry{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.JournalStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.JournalEntry{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.JournalProcessing:
			stats.Processing = sc.Count
		case domain.JournalCompleted:
			stats.Completed = sc.Count
		case domain.JournalFailed:
			stats.Failed = sc.Count
		case domain.JournalCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteJournalRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
