package infrastructure

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// UpdateInfo is the outcome of an update check
type UpdateInfo struct {
	Available      bool   `json:"available"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version"`
	ReleaseNotes   string `json:"release_notes,omitempty"`
	AssetName      string `json:"asset_name,omitempty"`
	AssetURL       string `json:"asset_url,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Body        string        `json:"body"`
	PublishedAt string        `json:"published_at"`
	ZipballURL  string        `json:"zipball_url"`
	Assets      []githubAsset `json:"assets"`
}

// GitHubUpdater checks the project's GitHub releases for newer versions and
// can download a release package into a staging directory.
type GitHubUpdater struct {
	owner          string
	repo           string
	currentVersion string
	apiBase        string
	client         *http.Client
	logger         *zap.Logger
}

// NewGitHubUpdater creates a new updater for the given repository
func NewGitHubUpdater(owner, repo, currentVersion string, log *zap.Logger) *GitHubUpdater {
	return &GitHubUpdater{
		owner:          owner,
		repo:           repo,
		currentVersion: currentVersion,
		apiBase:        "https://api.github.com",
		client:         &http.Client{Timeout: 30 * time.Second},
		logger:         log,
	}
}

// CheckForUpdate fetches the latest release and compares it against the
// running version. A malformed remote version is reported as an error, never
// as an available update.
func (u *GitHubUpdater) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", u.apiBase, u.owner, u.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpdateError{Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, &domain.UpdateError{Message: "update check failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No releases published yet
		return &UpdateInfo{Available: false, CurrentVersion: u.currentVersion}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpdateError{Message: fmt.Sprintf("update check returned status %d", resp.StatusCode)}
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, &domain.UpdateError{Message: "invalid release payload", Err: err}
	}

	latest, err := semver.NewVersion(strings.TrimPrefix(release.TagName, "v"))
	if err != nil {
		return nil, &domain.UpdateError{Message: fmt.Sprintf("invalid release tag %q", release.TagName), Err: err}
	}
	current, err := semver.NewVersion(strings.TrimPrefix(u.currentVersion, "v"))
	if err != nil {
		return nil, &domain.UpdateError{Message: fmt.Sprintf("invalid current version %q", u.currentVersion), Err: err}
	}

	info := &UpdateInfo{
		Available:      latest.GreaterThan(current),
		CurrentVersion: u.currentVersion,
		LatestVersion:  latest.String(),
		ReleaseNotes:   release.Body,
		PublishedAt:    release.PublishedAt,
	}
	if info.Available {
		name, assetURL := pickReleaseAsset(&release)
		info.AssetName = name
		info.AssetURL = assetURL
	}

	u.logger.Info("Update check complete",
		zap.String("current", info.CurrentVersion),
		zap.String("latest", info.LatestVersion),
		zap.Bool("available", info.Available))
	return info, nil
}

// pickReleaseAsset chooses the download URL for a release: a zip built for
// this platform first, then any zip, then the source zipball.
func pickReleaseAsset(release *githubRelease) (string, string) {
	for _, a := range release.Assets {
		name := strings.ToLower(a.Name)
		if strings.HasSuffix(name, ".zip") && strings.Contains(name, runtime.GOOS) {
			return a.Name, a.BrowserDownloadURL
		}
	}
	for _, a := range release.Assets {
		if strings.HasSuffix(strings.ToLower(a.Name), ".zip") {
			return a.Name, a.BrowserDownloadURL
		}
	}
	return "source.zip", release.ZipballURL
}

// DownloadUpdate downloads the release asset and extracts it into a fresh
// staging directory, returning the directory path. Applying the staged build
// is left to the caller.
func (u *GitHubUpdater) DownloadUpdate(ctx context.Context, info *UpdateInfo) (string, error) {
	if info == nil || !info.Available || info.AssetURL == "" {
		return "", &domain.UpdateError{Message: "no update available to download"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.AssetURL, nil)
	if err != nil {
		return "", &domain.UpdateError{Message: "failed to build request", Err: err}
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", &domain.UpdateError{Message: "update download failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.UpdateError{Message: fmt.Sprintf("update download returned status %d", resp.StatusCode)}
	}

	zipPath := filepath.Join(os.TempDir(), fmt.Sprintf("%s-update-%s.zip", domain.AppName, info.LatestVersion))
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", &domain.UpdateError{Message: "failed to create download file", Err: err}
	}
	if _, err := io.Copy(zipFile, resp.Body); err != nil {
		zipFile.Close()
		os.Remove(zipPath)
		return "", &domain.UpdateError{Message: "failed to save update package", Err: err}
	}
	zipFile.Close()
	defer os.Remove(zipPath)

	stageDir, err := os.MkdirTemp("", domain.AppName+"-staged-")
	if err != nil {
		return "", &domain.UpdateError{Message: "failed to create staging directory", Err: err}
	}
	if err := extractZip(zipPath, stageDir); err != nil {
		os.RemoveAll(stageDir)
		return "", &domain.UpdateError{Message: "failed to extract update package", Err: err}
	}

	u.logger.Info("Update staged",
		zap.String("version", info.LatestVersion),
		zap.String("dir", stageDir))
	return stageDir, nil
}

// extractZip unpacks src into destDir, rejecting entries that escape it
func extractZip(src, destDir string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, f := range reader.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}
		in, err := f.Open()
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
