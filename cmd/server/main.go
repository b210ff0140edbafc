package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/api"
	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
	"github.com/yourusername/tube-fetch-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode {
		startAsDaemon()
		return
	}

	// Run as server (called by daemon)
	runServer()
}

// startAsDaemon forks the current process and runs the server in background
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	// Redirect output to /dev/null
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := createDirectories(config); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Base application logger from config; falls back to console output
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		log = logger.NewDefault()
		log.Warn("Falling back to default logger", zap.Error(err))
	}
	defer log.Sync()

	// Multi-logger for structured events (3 categories: engine, batch, error)
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(multiLog)

	log.Info("Starting tube-fetch server",
		zap.String("version", domain.AppVersion),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_dir", config.Download.BaseDir))

	// Initialize journal repository
	journal, err := infrastructure.NewSQLiteJournalRepository(config.Journal.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize journal", zap.Error(err))
	}
	defer journal.Close()

	// Initialize infrastructure services
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	fetcher := infrastructure.NewYTDLPFetcher(config.Download.YTDLPBinary, config.Download.LogsDir, multiLog)
	embedder := infrastructure.NewThumbnailEmbedder(log)
	history := infrastructure.NewJSONHistoryStore(config.History.FilePath, config.History.Limit, log)
	converter := infrastructure.NewFFmpegConverter(config.Converter.FFmpegBinary, config.Converter.FFprobeBinary, log)
	updater := infrastructure.NewGitHubUpdater(
		config.Update.RepoOwner, config.Update.RepoName, domain.AppVersion, log)

	// Initialize core services
	engine := app.NewDownloadEngine(fetcher, embedder, history, journal, notifier, multiLog, log)
	batch := app.NewBatchOrchestrator(engine, notifier, multiLog, log)
	extractor := app.NewMetadataExtractor(fetcher, config.Download.ExtractTimeout, log)
	playlists := app.NewPlaylistExtractor(fetcher, 2*config.Download.ExtractTimeout, log)

	hub := app.NewEventHub(log)
	defer hub.Close()
	engine.SetCallback(hub.CallbackFor("engine"))

	// Setup HTTP router
	router := api.SetupRouter(api.Dependencies{
		Engine:     engine,
		Batch:      batch,
		Extractor:  extractor,
		Playlists:  playlists,
		History:    history,
		Journal:    journal,
		Hub:        hub,
		Updater:    updater,
		Converter:  converter,
		LogAdapter: logAdapter,
		Defaults:   config.Defaults,
		BaseDir:    config.Download.BaseDir,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Check for updates in the background on startup
	if config.Update.Enabled {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			info, err := updater.CheckForUpdate(ctx)
			if err != nil {
				log.Warn("Startup update check failed", zap.Error(err))
				return
			}
			if info.Available {
				notifier.NotifyUpdateAvailable(info.LatestVersion)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal")

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		config.Download.LogsDir,
		filepath.Dir(config.History.FilePath),
		filepath.Dir(config.Journal.DatabasePath),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
