package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/yt-audio-extract/internal/domain"
)

// EnvPrefix prefixes every environment variable read by LoadConfig
const EnvPrefix = "YTAUDIO"

// LoadConfig loads configuration from file and environment.
// An empty configPath searches the standard locations; a missing file there is not an error.
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.yt-audio")
		v.AddConfigPath("/etc/yt-audio")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
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

// setDefaults registers every key so AutomaticEnv can override keys absent from the file
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("extraction.output_dir", config.Extraction.OutputDir)
	v.SetDefault("extraction.audio_format", config.Extraction.AudioFormat)
	v.SetDefault("extraction.audio_quality", config.Extraction.AudioQuality)
	v.SetDefault("extraction.output_template", config.Extraction.OutputTemplate)
	v.SetDefault("extraction.concurrency", config.Extraction.Concurrency)
	v.SetDefault("extraction.requests_per_second", config.Extraction.RequestsPerSecond)
	v.SetDefault("ytdlp.binary", config.YTDLP.Binary)
	v.SetDefault("ytdlp.ffmpeg_location", config.YTDLP.FFmpegLocation)
	v.SetDefault("ytdlp.cookie_file", config.YTDLP.CookieFile)
	v.SetDefault("ytdlp.no_warnings", config.YTDLP.NoWarnings)
	v.SetDefault("ytdlp.auto_install", config.YTDLP.AutoInstall)
	v.SetDefault("history.enabled", config.History.Enabled)
	v.SetDefault("history.database_path", config.History.DatabasePath)
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
	v.SetDefault("logging.logs_dir", config.Logging.LogsDir)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Extraction.OutputDir = expandPath(config.Extraction.OutputDir)
	config.YTDLP.CookieFile = expandPath(config.YTDLP.CookieFile)
	config.YTDLP.FFmpegLocation = expandPath(config.YTDLP.FFmpegLocation)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Extraction.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if config.Extraction.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}

	if config.Extraction.AudioFormat == "" {
		return fmt.Errorf("audio format not configured")
	}

	if config.Extraction.OutputTemplate == "" {
		return fmt.Errorf("output template not configured")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
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

	v.Set("extraction", map[string]interface{}{
		"output_dir":          config.Extraction.OutputDir,
		"audio_format":        config.Extraction.AudioFormat,
		"audio_quality":       config.Extraction.AudioQuality,
		"output_template":     config.Extraction.OutputTemplate,
		"concurrency":         config.Extraction.Concurrency,
		"requests_per_second": config.Extraction.RequestsPerSecond,
	})
	v.Set("ytdlp", map[string]interface{}{
		"binary":          config.YTDLP.Binary,
		"ffmpeg_location": config.YTDLP.FFmpegLocation,
		"cookie_file":     config.YTDLP.CookieFile,
		"no_warnings":     config.YTDLP.NoWarnings,
		"auto_install":    config.YTDLP.AutoInstall,
	})
	v.Set("history", map[string]interface{}{
		"enabled":       config.History.Enabled,
		"database_path": config.History.DatabasePath,
	})
	v.Set("server", map[string]interface{}{
		"host": config.Server.Host,
		"port": config.Server.Port,
	})
	v.Set("notification", map[string]interface{}{
		"enabled": config.Notification.Enabled,
		"method":  config.Notification.Method,
	})
	v.Set("logging", map[string]interface{}{
		"level":       config.Logging.Level,
		"format":      config.Logging.Format,
		"output_path": config.Logging.OutputPath,
		"logs_dir":    config.Logging.LogsDir,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
