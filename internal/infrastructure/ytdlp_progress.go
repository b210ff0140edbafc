package infrastructure

import (
	"regexp"
	"strings"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// yt-dlp progress lines look like:
//   [download]  42.8% of 10.25MiB at 1.21MiB/s ETA 00:05
//   [download] 100% of 10.25MiB in 00:08
// Destination lines announce the file being written:
//   [download] Destination: /path/to/file.webm
//   [ExtractAudio] Destination: /path/to/file.mp3
//   [Merger] Merging formats into "/path/to/file.mp4"
var (
	progressLineRe    = regexp.MustCompile(`^\[download\]\s+([\d.]+%)\s+of\s+~?\s*(\S+)(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)
	destinationLineRe = regexp.MustCompile(`^\[(?:download|ExtractAudio|VideoConvertor)\] Destination:\s+(.+)$`)
	mergerLineRe      = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	alreadyLineRe     = regexp.MustCompile(`^\[download\]\s+(.+) has already been downloaded$`)
)

// progressParser turns raw yt-dlp output lines into progress updates while
// tracking the most recently announced output path.
type progressParser struct {
	destination string
}

// Destination returns the last output path announced by the tool. After a
// merge or audio extraction this is the final container, not the partial
// stream files.
func (p *progressParser) Destination() string {
	return p.destination
}

// Parse consumes one output line. The returned update is valid only when the
// second return value is true; bookkeeping lines (destinations, merges)
// update internal state without producing an update.
func (p *progressParser) Parse(line string) (domain.ProgressUpdate, bool) {
	line = strings.TrimRight(line, "\r\n")

	if m := destinationLineRe.FindStringSubmatch(line); m != nil {
		p.destination = strings.TrimSpace(m[1])
		return domain.ProgressUpdate{}, false
	}
	if m := mergerLineRe.FindStringSubmatch(line); m != nil {
		p.destination = m[1]
		return domain.ProgressUpdate{}, false
	}
	if m := alreadyLineRe.FindStringSubmatch(line); m != nil {
		p.destination = strings.TrimSpace(m[1])
		return domain.ProgressUpdate{
			Status:     domain.ProgressFinished,
			PercentStr: "100%",
			Filename:   p.destination,
		}, true
	}

	m := progressLineRe.FindStringSubmatch(line)
	if m == nil {
		return domain.ProgressUpdate{}, false
	}

	update := domain.ProgressUpdate{
		Status:     domain.ProgressDownloading,
		PercentStr: m[1],
		TotalStr:   m[2],
		SpeedStr:   m[3],
		ETAStr:     m[4],
		Filename:   p.destination,
	}
	if update.PercentStr == "100%" {
		update.Status = domain.ProgressFinished
	}
	return update, true
}
