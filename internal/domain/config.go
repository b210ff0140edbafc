package domain

import "time"

// AppVersion is the semantic version of this build.
const AppVersion = "1.0.0"

// AppName identifies the application in notifications and the updater.
const AppName = "tube-fetch"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	History      HistoryConfig      `mapstructure:"history"`
	Journal      JournalConfig      `mapstructure:"journal"`
	Converter    ConverterConfig    `mapstructure:"converter"`
	Update       UpdateConfig       `mapstructure:"update"`
	Defaults     DefaultsConfig     `mapstructure:"defaults"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir        string        `mapstructure:"base_dir"`
	LogsDir        string        `mapstructure:"logs_dir"`
	YTDLPBinary    string        `mapstructure:"ytdlp_binary"`
	ExtractTimeout time.Duration `mapstructure:"extract_timeout"`
}

// HistoryConfig contains history-store configuration
type HistoryConfig struct {
	FilePath string `mapstructure:"file_path"`
	Limit    int    `mapstructure:"limit"`
}

// JournalConfig contains download-journal configuration
type JournalConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// ConverterConfig contains format-conversion configuration
type ConverterConfig struct {
	FFmpegBinary  string `mapstructure:"ffmpeg_binary"`
	FFprobeBinary string `mapstructure:"ffprobe_binary"`
}

// UpdateConfig contains self-update configuration
type UpdateConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	RepoOwner string `mapstructure:"repo_owner"`
	RepoName  string `mapstructure:"repo_name"`
}

// DefaultsConfig carries the user's preferred download options, applied when
// a request omits them.
type DefaultsConfig struct {
	Format         string `mapstructure:"format"`
	AudioQuality   string `mapstructure:"audio_quality"`
	VideoQuality   string `mapstructure:"video_quality"`
	EmbedThumbnail bool   `mapstructure:"embed_thumbnail"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			BaseDir:        "$HOME/Downloads",
			LogsDir:        "$HOME/.tube-fetch/logs",
			YTDLPBinary:    "yt-dlp",
			ExtractTimeout: 60 * time.Second,
		},
		History: HistoryConfig{
			FilePath: "$HOME/.tube-fetch/download_history.json",
			Limit:    100,
		},
		Journal: JournalConfig{
			DatabasePath: "$HOME/.tube-fetch/journal.db",
		},
		Converter: ConverterConfig{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Update: UpdateConfig{
			Enabled:   true,
			RepoOwner: "yourusername",
			RepoName:  "tube-fetch-go",
		},
		Defaults: DefaultsConfig{
			Format:         string(FormatAudio),
			AudioQuality:   string(Audio320kbps),
			VideoQuality:   string(Quality720p),
			EmbedThumbnail: false,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
