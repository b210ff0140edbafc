package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.tube-fetch")
		v.AddConfigPath("/etc/tube-fetch")
	}

	// Read environment variables
	v.SetEnvPrefix("TUBEFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.History.FilePath = expandPath(config.History.FilePath)
	config.Journal.DatabasePath = expandPath(config.Journal.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.History.FilePath == "" {
		return fmt.Errorf("history file path not configured")
	}

	if config.History.Limit < 1 {
		return fmt.Errorf("history limit must be at least 1")
	}

	if config.Journal.DatabasePath == "" {
		return fmt.Errorf("journal database path not configured")
	}

	if !domain.ValidateFormat(domain.Format(config.Defaults.Format)) {
		return fmt.Errorf("invalid default format: %s", config.Defaults.Format)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	// Leaf keys must match the mapstructure tags so the file loads back
	v.Set("server.host", config.Server.Host)
	v.Set("server.port", config.Server.Port)
	v.Set("download.base_dir", config.Download.BaseDir)
	v.Set("download.logs_dir", config.Download.LogsDir)
	v.Set("download.ytdlp_binary", config.Download.YTDLPBinary)
	v.Set("download.extract_timeout", config.Download.ExtractTimeout)
	v.Set("history.file_path", config.History.FilePath)
	v.Set("history.limit", config.History.Limit)
	v.Set("journal.database_path", config.Journal.DatabasePath)
	v.Set("converter.ffmpeg_binary", config.Converter.FFmpegBinary)
	v.Set("converter.ffprobe_binary", config.Converter.FFprobeBinary)
	v.Set("update.enabled", config.Update.Enabled)
	v.Set("update.repo_owner", config.Update.RepoOwner)
	v.Set("update.repo_name", config.Update.RepoName)
	v.Set("defaults.format", config.Defaults.Format)
	v.Set("defaults.audio_quality", config.Defaults.AudioQuality)
	v.Set("defaults.video_quality", config.Defaults.VideoQuality)
	v.Set("defaults.embed_thumbnail", config.Defaults.EmbedThumbnail)
	v.Set("notification.enabled", config.Notification.Enabled)
	v.Set("notification.method", config.Notification.Method)
	v.Set("logging.level", config.Logging.Level)
	v.Set("logging.format", config.Logging.Format)
	v.Set("logging.output_path", config.Logging.OutputPath)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
