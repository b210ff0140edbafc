package domain

// PlaylistEntry is one downloadable item inside a playlist. Entries keep the
// playlist's insertion order end-to-end.
type PlaylistEntry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	WebpageURL string `json:"webpage_url"`
	Duration   int    `json:"duration,omitempty"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

// Playlist describes an ordered collection of entries produced by the
// playlist extractor. VideoCount always equals len(Entries).
type Playlist struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Uploader   string          `json:"uploader,omitempty"`
	WebpageURL string          `json:"webpage_url"`
	Entries    []PlaylistEntry `json:"entries"`
	VideoCount int             `json:"video_count"`
}
