package domain

// EventKind tags the variants of the progress event union.
type EventKind string

const (
	EventStarting           EventKind = "starting"
	EventExtracting         EventKind = "extracting"
	EventDownloading        EventKind = "downloading"
	EventProcessing         EventKind = "processing"
	EventComplete           EventKind = "complete"
	EventPlaylistExtracted  EventKind = "playlist_extracted"
	EventBatchProgress      EventKind = "batch_progress"
	EventBatchComplete      EventKind = "batch_complete"
	EventCancelled          EventKind = "cancelled"
	EventError              EventKind = "error"
)

// Event is the progress protocol between the core and its observers. Each
// logical operation produces exactly one event stream and exactly one
// terminal event (Complete, BatchComplete, Cancelled, or Failure), so a
// consumer can safely leave any "in progress" state exactly once.
//
// The union is sealed: every variant lives in this package.
type Event interface {
	Kind() EventKind
}

// Callback consumes an event stream. Delivery is fire-and-forget; callbacks
// must not block the producing worker.
type Callback func(Event)

// Starting announces that an operation is being prepared.
type Starting struct {
	Message     string `json:"message"`
	TotalVideos int    `json:"total_videos,omitempty"`
}

func (Starting) Kind() EventKind { return EventStarting }

// Extracting announces that metadata resolution has begun.
type Extracting struct {
	Message string `json:"message"`
}

func (Extracting) Kind() EventKind { return EventExtracting }

// Downloading reports transfer progress as translated from the collaborator.
type Downloading struct {
	Percent    float64 `json:"percent"`
	Speed      string  `json:"speed,omitempty"`
	Downloaded string  `json:"downloaded,omitempty"`
	Total      string  `json:"total,omitempty"`
	ETA        string  `json:"eta,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Message    string  `json:"message,omitempty"`
}

func (Downloading) Kind() EventKind { return EventDownloading }

// Processing reports that the transfer finished and post-processing
// (merging, transcoding) is running.
type Processing struct {
	Percent  float64 `json:"percent"`
	Filename string  `json:"filename,omitempty"`
}

func (Processing) Kind() EventKind { return EventProcessing }

// Complete is the terminal success event for a single operation. For
// downloads it carries the output path and the full descriptor so a consumer
// can append history; for metadata extraction it carries the descriptor only.
type Complete struct {
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	Video    *Video `json:"video,omitempty"`
}

func (Complete) Kind() EventKind { return EventComplete }

// PlaylistExtracted is the terminal success event of a playlist extraction.
type PlaylistExtracted struct {
	Playlist *Playlist `json:"playlist"`
}

func (PlaylistExtracted) Kind() EventKind { return EventPlaylistExtracted }

// BatchProgress reports batch-level progress. It is emitted once per
// finished item with AddToHistory set, and between items as position
// updates.
type BatchProgress struct {
	Message         string  `json:"message"`
	Progress        float64 `json:"progress"`
	CurrentVideo    int     `json:"current_video,omitempty"`
	CompletedVideos int     `json:"completed_videos"`
	TotalVideos     int     `json:"total_videos"`
	Filename        string  `json:"filename,omitempty"`
	Video           *Video  `json:"video,omitempty"`
	Format          Format  `json:"format,omitempty"`
	Quality         string  `json:"quality,omitempty"`
	AddToHistory    bool    `json:"add_to_history,omitempty"`
}

func (BatchProgress) Kind() EventKind { return EventBatchProgress }

// BatchComplete is the terminal event of a whole batch, distinct in shape
// from the per-item Complete so consumers can tell them apart.
type BatchComplete struct {
	Message         string `json:"message"`
	CompletedVideos int    `json:"completed_videos"`
	TotalVideos     int    `json:"total_videos"`
	Downloaded      bool   `json:"downloaded"`
}

func (BatchComplete) Kind() EventKind { return EventBatchComplete }

// Cancelled reports an advisory cancellation. The in-flight transfer, if
// any, is not interrupted and will still deliver its own terminal event.
type Cancelled struct {
	Message string `json:"message"`
}

func (Cancelled) Kind() EventKind { return EventCancelled }

// Failure is the terminal error event.
type Failure struct {
	Message string `json:"message"`
}

func (Failure) Kind() EventKind { return EventError }

// Envelope is the wire form of an event, tagged with its kind and the
// source stream it belongs to.
type Envelope struct {
	Source string    `json:"source"`
	Kind   EventKind `json:"kind"`
	Event  Event     `json:"event"`
}

// NewEnvelope wraps an event for broadcast.
func NewEnvelope(source string, e Event) Envelope {
	return Envelope{Source: source, Kind: e.Kind(), Event: e}
}
