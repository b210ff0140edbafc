package domain

// HistoryRecord is one completed download, created by the history store and
// never mutated afterwards. Records are kept most-recent-first.
type HistoryRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Thumbnail    string `json:"thumbnail"`
	Duration     string `json:"duration"`
	Format       Format `json:"format"`
	Quality      string `json:"quality"`
	FilePath     string `json:"file_path"`
	DownloadTime string `json:"download_time"`
	Timestamp    int64  `json:"timestamp"`
}

// HistoryStore is the append-only bounded log of completed downloads. The
// store is the only writer of its backing file; every mutation persists
// immediately, and persistence failures are logged, never raised.
type HistoryStore interface {
	AddRecord(video *Video, req *DownloadRequest, filePath string) HistoryRecord
	GetRecords(limit int) []HistoryRecord
	DeleteRecord(id string) bool
	ClearHistory()
}
