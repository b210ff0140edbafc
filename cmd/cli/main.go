package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "tube-fetch",
		Short: "tube-fetch CLI - YouTube downloader",
		Long:  `A command-line interface for downloading YouTube videos and playlists as mp3 or mp4.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(playlistCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(updateCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// postJSON sends a JSON payload and returns the decoded response body
func postJSON(path string, payload interface{}, wantStatus int) map[string]interface{} {
	data, _ := json.Marshal(payload)
	resp, err := http.Post(serverURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)
	return result
}

// getJSON fetches a path and decodes the response into out
func getJSON(path string, out interface{}) {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	json.Unmarshal(body, out)
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a single video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetString("quality")
		dest, _ := cmd.Flags().GetString("dest")
		embed, _ := cmd.Flags().GetBool("embed-thumbnail")

		payload := map[string]interface{}{"url": args[0]}
		if format != "" {
			payload["format"] = format
		}
		if quality != "" {
			payload["quality"] = quality
		}
		if dest != "" {
			payload["destination"] = dest
		}
		if cmd.Flags().Changed("embed-thumbnail") {
			payload["embed_thumbnail"] = embed
		}

		result := postJSON("/api/v1/downloads", payload, http.StatusAccepted)
		fmt.Printf("Download started!\n")
		fmt.Printf("Task: %s\n", result["task_id"])
		fmt.Println("Run 'tube-fetch progress' to follow it.")
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [url...]",
	Short: "Download multiple videos in order",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetString("quality")
		dest, _ := cmd.Flags().GetString("dest")

		payload := map[string]interface{}{"urls": args}
		if format != "" {
			payload["format"] = format
		}
		if quality != "" {
			payload["quality"] = quality
		}
		if dest != "" {
			payload["destination"] = dest
		}

		result := postJSON("/api/v1/downloads/batch", payload, http.StatusAccepted)
		fmt.Printf("Batch of %v videos started!\n", result["total_videos"])
		fmt.Println("Run 'tube-fetch progress' to follow it.")
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show video metadata and available qualities",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var video map[string]interface{}
		getJSON("/api/v1/videos/info?url="+url.QueryEscape(args[0]), &video)

		fmt.Printf("Title:    %s\n", video["title"])
		fmt.Printf("Uploader: %s\n", video["uploader"])
		fmt.Printf("Duration: %s\n", video["duration_string"])
		if views, ok := video["view_count"]; ok {
			fmt.Printf("Views:    %v\n", views)
		}

		if formats, ok := video["formats"].(map[string]interface{}); ok {
			if mp4, ok := formats["mp4"].(map[string]interface{}); ok && len(mp4) > 0 {
				fmt.Printf("Video qualities: %s\n", strings.Join(sortedKeys(mp4), ", "))
			}
			if mp3, ok := formats["mp3"].(map[string]interface{}); ok && len(mp3) > 0 {
				fmt.Printf("Audio qualities: %s\n", strings.Join(sortedKeys(mp3), ", "))
			}
		}
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist [url]",
	Short: "List the entries of a playlist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var playlist map[string]interface{}
		getJSON("/api/v1/playlists/info?url="+url.QueryEscape(args[0]), &playlist)

		fmt.Printf("Playlist: %s (%v videos)\n\n", playlist["title"], playlist["video_count"])

		entries, _ := playlist["entries"].([]interface{})
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tID")
		for i, e := range entries {
			entry, _ := e.(map[string]interface{})
			fmt.Fprintf(w, "%d\t%s\t%s\n",
				i+1,
				truncate(fmt.Sprintf("%v", entry["title"]), 60),
				entry["id"])
		}
		w.Flush()
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the current download or batch",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		postJSON("/api/v1/downloads/cancel", map[string]interface{}{}, http.StatusOK)
		fmt.Println("Cancellation requested")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine status",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var status map[string]interface{}
		getJSON("/api/v1/downloads/status", &status)

		fmt.Printf("Downloading:      %v\n", status["downloading"])
		fmt.Printf("Batch processing: %v\n", status["batch_processing"])
		if current, ok := status["url"]; ok {
			fmt.Printf("Current URL:      %v\n", current)
		}
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recent download attempts",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var entries []map[string]interface{}
		getJSON("/api/v1/downloads/journal", &entries)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tFORMAT\tSTATUS\tCREATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(fmt.Sprintf("%v", e["id"]), 8),
				truncate(fmt.Sprintf("%v", e["url"]), 40),
				e["format"],
				e["status"],
				e["created_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var stats map[string]interface{}
		getJSON("/api/v1/downloads/stats", &stats)

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:      %v\n", stats["total"])
		fmt.Printf("  Processing: %v\n", stats["processing"])
		fmt.Printf("  Completed:  %v\n", stats["completed"])
		fmt.Printf("  Failed:     %v\n", stats["failed"])
		fmt.Printf("  Cancelled:  %v\n", stats["cancelled"])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completed downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		clear, _ := cmd.Flags().GetBool("clear")
		if clear {
			req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/history", nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			resp.Body.Close()
			fmt.Println("History cleared")
			return
		}

		var records []map[string]interface{}
		getJSON("/api/v1/history", &records)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tFORMAT\tQUALITY\tWHEN")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				truncate(fmt.Sprintf("%v", r["title"]), 50),
				r["format"],
				r["quality"],
				r["download_time"])
		}
		w.Flush()
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Stream live progress events",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws/progress"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		fmt.Println("Streaming progress events (Ctrl-C to stop)...")
		for {
			var env map[string]interface{}
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			event, _ := env["event"].(map[string]interface{})
			line := fmt.Sprintf("[%v/%v]", env["source"], env["kind"])
			if msg, ok := event["message"].(string); ok && msg != "" {
				line += " " + msg
			}
			if pct, ok := event["percent"].(float64); ok {
				line += fmt.Sprintf(" %.1f%%", pct)
			}
			fmt.Println(line)
		}
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a downloaded file to mp3 or mp4",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		target, _ := cmd.Flags().GetString("to")
		payload := map[string]interface{}{
			"input_path":    args[0],
			"target_format": target,
		}
		postJSON("/api/v1/conversions", payload, http.StatusAccepted)
		fmt.Printf("Conversion to %s started. Run 'tube-fetch progress' to follow it.\n", target)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer version",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var info map[string]interface{}
		getJSON("/api/v1/updates/check", &info)

		if available, _ := info["available"].(bool); !available {
			fmt.Printf("Already on the latest version (%v)\n", info["current_version"])
			return
		}
		fmt.Printf("Update available: %v -> %v\n", info["current_version"], info["latest_version"])

		download, _ := cmd.Flags().GetBool("download")
		if !download {
			fmt.Println("Run 'tube-fetch update --download' to stage it.")
			return
		}

		result := postJSON("/api/v1/updates/download", map[string]interface{}{}, http.StatusOK)
		fmt.Printf("Version %v staged at %v\n", result["version"], result["staged_dir"])
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "", "Output format (mp3, mp4)")
	downloadCmd.Flags().StringP("quality", "q", "", "Quality tier (e.g. 720p, 320kbps)")
	downloadCmd.Flags().StringP("dest", "d", "", "Destination directory")
	downloadCmd.Flags().Bool("embed-thumbnail", false, "Embed the thumbnail as mp3 cover art")
	batchCmd.Flags().StringP("format", "f", "", "Output format (mp3, mp4)")
	batchCmd.Flags().StringP("quality", "q", "", "Quality tier (e.g. 720p, 320kbps)")
	batchCmd.Flags().StringP("dest", "d", "", "Destination directory")
	historyCmd.Flags().Bool("clear", false, "Clear the history instead of listing it")
	convertCmd.Flags().String("to", "mp3", "Target format (mp3, mp4)")
	updateCmd.Flags().Bool("download", false, "Download and stage the update")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
