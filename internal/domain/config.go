package domain

// Config represents the application configuration
type Config struct {
	Extraction   ExtractionConfig   `mapstructure:"extraction"`
	YTDLP        YTDLPConfig        `mapstructure:"ytdlp"`
	History      HistoryConfig      `mapstructure:"history"`
	Server       ServerConfig       `mapstructure:"server"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ExtractionConfig contains batch extraction settings
type ExtractionConfig struct {
	OutputDir         string  `mapstructure:"output_dir"`
	AudioFormat       string  `mapstructure:"audio_format"`
	AudioQuality      string  `mapstructure:"audio_quality"`
	OutputTemplate    string  `mapstructure:"output_template"`
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // 0 disables pacing
}

// Options returns the extraction options described by the config
func (c ExtractionConfig) Options() ExtractionOptions {
	return ExtractionOptions{
		OutputDirectory:    c.OutputDir,
		AudioFormat:        c.AudioFormat,
		AudioQuality:       c.AudioQuality,
		OutputNameTemplate: c.OutputTemplate,
	}
}

// YTDLPConfig contains yt-dlp backend configuration
type YTDLPConfig struct {
	Binary         string `mapstructure:"binary"`
	FFmpegLocation string `mapstructure:"ffmpeg_location"`
	CookieFile     string `mapstructure:"cookie_file"`
	NoWarnings     bool   `mapstructure:"no_warnings"`
	AutoInstall    bool   `mapstructure:"auto_install"` // download yt-dlp and ffmpeg when missing
}

// HistoryConfig contains outcome history settings
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // batch/error event files and backend output
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			OutputDir:         DefaultOutputDirectory,
			AudioFormat:       DefaultAudioFormat,
			AudioQuality:      DefaultAudioQuality,
			OutputTemplate:    DefaultOutputNameTemplate,
			Concurrency:       DefaultConcurrency,
			RequestsPerSecond: 0,
		},
		YTDLP: YTDLPConfig{
			Binary:      "yt-dlp",
			NoWarnings:  true,
			AutoInstall: false,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.yt-audio/history.db",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.yt-audio/logs",
		},
	}
}
