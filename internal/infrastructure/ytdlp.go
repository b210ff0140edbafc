package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/pkg/logger"
)

// progressEmitInterval throttles progress callbacks so a fast transfer does
// not flood event consumers. Terminal updates always pass through.
const progressEmitInterval = 250 * time.Millisecond

// YTDLPFetcher implements domain.Fetcher by shelling out to yt-dlp
type YTDLPFetcher struct {
	binary      string
	logsDir     string
	eventLogger *logger.MultiLogger // For structured events only (LogAppError)
}

// NewYTDLPFetcher creates a new yt-dlp backed fetcher
func NewYTDLPFetcher(binary, logsDir string, eventLogger *logger.MultiLogger) *YTDLPFetcher {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLPFetcher{
		binary:      binary,
		logsDir:     logsDir,
		eventLogger: eventLogger,
	}
}

// Fetch resolves metadata or performs a transfer depending on the options
func (f *YTDLPFetcher) Fetch(ctx context.Context, url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
	if opts.SkipDownload {
		return f.extract(ctx, url, opts)
	}
	return f.download(ctx, url, opts)
}

// extract runs yt-dlp in metadata-only mode and decodes its JSON output
func (f *YTDLPFetcher) extract(ctx context.Context, url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
	args := []string{"-J", "--no-warnings"}
	if opts.FlatExtraction {
		args = append(args, "--flat-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, f.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if f.eventLogger != nil {
			f.eventLogger.LogAppError("yt-dlp extraction failed",
				zap.String("url", url),
				zap.String("stderr", lastLines(stderr.String(), 5)),
				zap.Error(err))
		}
		return nil, &domain.ExtractionError{URL: url, Err: fmt.Errorf("%w: %s", err, lastLines(stderr.String(), 2))}
	}

	var info domain.MediaInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, &domain.ExtractionError{URL: url, Err: fmt.Errorf("invalid metadata output: %w", err)}
	}
	return &info, nil
}

// download runs yt-dlp in transfer mode, streaming its stdout line by line
// so progress can be forwarded while the process runs
func (f *YTDLPFetcher) download(ctx context.Context, url string, opts domain.FetchOptions) (*domain.MediaInfo, error) {
	args := f.buildDownloadArgs(url, opts)

	// Open log file for raw tool output (stdout and stderr combined)
	fetchLog, err := f.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer fetchLog.Close()

	cmdLine := ShellEscapeCommand(f.binary, args...)
	f.writeLogHeader(fetchLog, url, cmdLine)

	cmd := exec.CommandContext(ctx, f.binary, args...)
	cmd.Stderr = fetchLog

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		f.writeLogFooter(fetchLog, false, fmt.Sprintf("yt-dlp failed to start: %v", err))
		return nil, &domain.DownloadError{URL: url, Err: err}
	}

	parser := &progressParser{}
	limiter := rate.NewLimiter(rate.Every(progressEmitInterval), 1)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fetchLog.WriteString(line + "\n")

		update, ok := parser.Parse(line)
		if !ok || opts.Progress == nil {
			continue
		}
		if update.Status == domain.ProgressFinished || limiter.Allow() {
			opts.Progress(update)
		}
	}

	if err := cmd.Wait(); err != nil {
		f.writeLogFooter(fetchLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.DownloadError{URL: url, Err: err}
	}

	dest := parser.Destination()
	if dest == "" {
		f.writeLogFooter(fetchLog, false, "no output file reported")
		return nil, &domain.DownloadError{URL: url, Err: fmt.Errorf("no output file reported")}
	}
	// With audio extraction the announced path keeps the intermediate
	// extension on some tool versions. Prefer the requested container.
	if opts.ExtractAudio && opts.AudioCodec != "" {
		dest = replaceExt(dest, "."+opts.AudioCodec)
	}

	f.writeLogFooter(fetchLog, true, fmt.Sprintf("Downloaded: %s", dest))

	if opts.Progress != nil {
		opts.Progress(domain.ProgressUpdate{
			Status:     domain.ProgressFinished,
			PercentStr: "100%",
			Filename:   dest,
		})
	}

	return &domain.MediaInfo{Filepath: dest}, nil
}

// buildDownloadArgs assembles the yt-dlp command line for a transfer.
// Note: exec.Command passes args directly to process, no shell quoting needed
func (f *YTDLPFetcher) buildDownloadArgs(url string, opts domain.FetchOptions) []string {
	args := []string{"--newline", "--no-playlist", "--no-warnings"}

	if opts.FormatSelector != "" {
		args = append(args, "-f", opts.FormatSelector)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}

	if opts.ExtractAudio {
		args = append(args, "-x")
		if opts.AudioCodec != "" {
			args = append(args, "--audio-format", opts.AudioCodec)
		}
		if opts.AudioBitrate != "" {
			args = append(args, "--audio-quality", opts.AudioBitrate+"K")
		}
	} else if opts.MergeFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeFormat)
	}

	return append(args, url)
}

// openLogFile opens the fetch log file for today.
// All raw tool output (stdout and stderr) goes to this single file.
func (f *YTDLPFetcher) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(f.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	fetchPath := filepath.Join(f.logsDir, "fetch-"+dateStr+".log")
	return os.OpenFile(fetchPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the fetch start marker
func (f *YTDLPFetcher) writeLogHeader(file *os.File, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Fetch: %s ===\n", timestamp, url))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// writeLogFooter writes the fetch end marker
func (f *YTDLPFetcher) writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}

// lastLines returns up to n trailing non-empty lines of s
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// replaceExt swaps the extension of path for ext (which includes the dot)
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
