package domain

import "context"

// ProgressStatus mirrors the collaborator's native progress phases.
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
	ProgressError       ProgressStatus = "error"
)

// ProgressUpdate is one raw progress notification from the collaborator.
// String fields arrive in the collaborator's own human-readable form and are
// translated into events by the engine.
type ProgressUpdate struct {
	Status        ProgressStatus
	PercentStr    string
	SpeedStr      string
	DownloadedStr string
	TotalStr      string
	ETAStr        string
	Filename      string
}

// ProgressFunc receives collaborator progress notifications.
type ProgressFunc func(ProgressUpdate)

// FetchOptions configures a single collaborator invocation.
type FetchOptions struct {
	OutputTemplate string
	FormatSelector string
	MergeFormat    string
	ExtractAudio   bool
	AudioCodec     string
	AudioBitrate   string
	FlatExtraction bool
	SkipDownload   bool
	Progress       ProgressFunc
}

// SourceFormat is one rendition reported by the collaborator.
type SourceFormat struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	TBR      float64 `json:"tbr"`
	ABR      float64 `json:"abr"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	Filesize int64   `json:"filesize"`
}

// MediaInfo is the structured metadata produced by the collaborator for a
// video or, with FlatExtraction, a playlist with stub Entries.
type MediaInfo struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Thumbnail   string         `json:"thumbnail"`
	Duration    float64        `json:"duration"`
	ViewCount   int64          `json:"view_count"`
	WebpageURL  string         `json:"webpage_url"`
	Uploader    string         `json:"uploader"`
	UploadDate  string         `json:"upload_date"`
	Formats     []SourceFormat `json:"formats"`
	Entries     []MediaInfo    `json:"entries"`
	// Filepath is the resolved output path after an actual transfer.
	Filepath string `json:"filepath"`
}

// Fetcher is the external extraction/transfer collaborator. With
// SkipDownload it resolves metadata only; otherwise it performs the transfer
// while invoking the progress hook.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*MediaInfo, error)
}

// CoverEmbedder embeds an image payload as cover art into a completed audio
// file's tag container.
type CoverEmbedder interface {
	EmbedCover(filePath, thumbnailURL string) error
}
