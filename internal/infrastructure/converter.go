package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// FFmpegConverter converts completed downloads between containers using
// ffmpeg, reporting progress parsed from `-progress pipe:2` key=value output.
type FFmpegConverter struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *zap.Logger
}

// NewFFmpegConverter creates a new converter
func NewFFmpegConverter(ffmpegBinary, ffprobeBinary string, log *zap.Logger) *FFmpegConverter {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &FFmpegConverter{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		logger:        log,
	}
}

// Available reports whether the ffmpeg binary can be found
func (c *FFmpegConverter) Available() bool {
	_, err := exec.LookPath(c.ffmpegBinary)
	return err == nil
}

// Duration returns the media duration in seconds via ffprobe
func (c *FFmpegConverter) Duration(ctx context.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.ffprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration output: %w", err)
	}
	return seconds, nil
}

// Convert transcodes inputPath into the target format next to the input
// file and returns the output path. progress, when non-nil, receives values
// in [0,1); completion is signalled by Convert returning.
func (c *FFmpegConverter) Convert(ctx context.Context, inputPath string, target domain.Format, progress func(float64)) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("input file not found: %w", err)
	}

	outputPath := replaceExt(inputPath, "."+string(target))
	if outputPath == inputPath {
		return "", fmt.Errorf("input is already %s", target)
	}

	totalSeconds, err := c.Duration(ctx, inputPath)
	if err != nil {
		c.logger.Warn("Could not probe duration, progress disabled",
			zap.String("input", inputPath),
			zap.Error(err))
		totalSeconds = 0
	}

	args := []string{"-y", "-i", inputPath}
	switch target {
	case domain.FormatAudio:
		args = append(args, "-vn", "-acodec", "libmp3lame", "-q:a", "0")
	case domain.FormatVideo:
		args = append(args, "-c:v", "libx264", "-c:a", "aac")
	default:
		return "", fmt.Errorf("unsupported target format: %s", target)
	}
	args = append(args, "-progress", "pipe:2", outputPath)

	cmd := exec.CommandContext(ctx, c.ffmpegBinary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("ffmpeg failed to start: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if progress == nil || totalSeconds <= 0 {
			continue
		}
		if ratio, ok := parseOutTime(line, totalSeconds); ok {
			progress(ratio)
		}
	}

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	c.logger.Info("Conversion complete",
		zap.String("input", filepath.Base(inputPath)),
		zap.String("output", filepath.Base(outputPath)))
	return outputPath, nil
}

// parseOutTime extracts an out_time_us progress line and converts it into a
// completion ratio capped below 1 so only Convert's return marks completion.
func parseOutTime(line string, totalSeconds float64) (float64, bool) {
	const prefix = "out_time_us="
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, prefix)), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	ratio := (float64(us) / 1e6) / totalSeconds
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 0.95 {
		ratio = 0.95
	}
	return ratio, true
}
