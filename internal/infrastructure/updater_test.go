package infrastructure

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestUpdater(t *testing.T, handler http.Handler) (*GitHubUpdater, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u := NewGitHubUpdater("yourusername", "tube-fetch", "1.0.0", zap.NewNop())
	u.apiBase = srv.URL
	return u, srv
}

func releaseHandler(t *testing.T, body string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/yourusername/tube-fetch/releases/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

func TestCheckForUpdate_NewerVersionAvailable(t *testing.T) {
	updater, _ := newTestUpdater(t, releaseHandler(t, `{
		"tag_name": "v1.2.0",
		"body": "Bug fixes",
		"published_at": "2024-06-01T00:00:00Z",
		"assets": [
			{"name": "tube-fetch-windows.zip", "browser_download_url": "https://example.com/win.zip"}
		]
	}`))

	info, err := updater.CheckForUpdate(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Available)
	assert.Equal(t, "1.0.0", info.CurrentVersion)
	assert.Equal(t, "1.2.0", info.LatestVersion)
	assert.Equal(t, "Bug fixes", info.ReleaseNotes)
	assert.NotEmpty(t, info.AssetURL)
}

func TestCheckForUpdate_SameVersionNotAvailable(t *testing.T) {
	updater, _ := newTestUpdater(t, releaseHandler(t, `{"tag_name": "v1.0.0"}`))

	info, err := updater.CheckForUpdate(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Available)
	assert.Empty(t, info.AssetURL)
}

func TestCheckForUpdate_OlderRemoteNotAvailable(t *testing.T) {
	updater, _ := newTestUpdater(t, releaseHandler(t, `{"tag_name": "v0.9.3"}`))

	info, err := updater.CheckForUpdate(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Available)
	assert.Equal(t, "0.9.3", info.LatestVersion)
}

func TestCheckForUpdate_NoReleasesYet(t *testing.T) {
	updater, _ := newTestUpdater(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	info, err := updater.CheckForUpdate(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Available)
}

func TestCheckForUpdate_MalformedTagIsError(t *testing.T) {
	updater, _ := newTestUpdater(t, releaseHandler(t, `{"tag_name": "nightly-build"}`))

	_, err := updater.CheckForUpdate(context.Background())
	require.Error(t, err)
}

func TestCheckForUpdate_ServerErrorIsError(t *testing.T) {
	updater, _ := newTestUpdater(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := updater.CheckForUpdate(context.Background())
	require.Error(t, err)
}

func TestPickReleaseAsset_PrefersPlatformZip(t *testing.T) {
	release := &githubRelease{
		ZipballURL: "https://example.com/source",
		Assets: []githubAsset{
			{Name: "tube-fetch-other.zip", BrowserDownloadURL: "https://example.com/other.zip"},
		},
	}

	// Any zip beats the source zipball
	name, url := pickReleaseAsset(release)
	assert.Equal(t, "tube-fetch-other.zip", name)
	assert.Equal(t, "https://example.com/other.zip", url)

	// No zip assets at all falls back to the zipball
	release.Assets = []githubAsset{{Name: "checksums.txt"}}
	name, url = pickReleaseAsset(release)
	assert.Equal(t, "source.zip", name)
	assert.Equal(t, "https://example.com/source", url)
}

func TestDownloadUpdate_StagesArchiveContents(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("bin/tube-fetch")
	require.NoError(t, err)
	_, err = f.Write([]byte("new build"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	updater := NewGitHubUpdater("yourusername", "tube-fetch", "1.0.0", zap.NewNop())
	stageDir, err := updater.DownloadUpdate(context.Background(), &UpdateInfo{
		Available:     true,
		LatestVersion: "1.1.0",
		AssetURL:      srv.URL + "/release.zip",
	})
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(stageDir) })

	data, err := os.ReadFile(filepath.Join(stageDir, "bin", "tube-fetch"))
	require.NoError(t, err)
	assert.Equal(t, "new build", string(data))
}

func TestDownloadUpdate_RejectsMissingUpdate(t *testing.T) {
	updater := NewGitHubUpdater("yourusername", "tube-fetch", "1.0.0", zap.NewNop())

	_, err := updater.DownloadUpdate(context.Background(), nil)
	require.Error(t, err)
	_, err = updater.DownloadUpdate(context.Background(), &UpdateInfo{Available: false})
	require.Error(t, err)
}
