// Package config defines service configuration and its loading from defaults,
// an optional YAML file and VOICE_DIARY_* environment variables.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // diary time zones must resolve in minimal containers

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// Config contains process configuration.
type Config struct {
	Log        LogConfig        `koanf:"log"`
	HTTP       HTTPConfig       `koanf:"http"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Storage    StorageConfig    `koanf:"storage"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	Analyzer   AnalyzerConfig   `koanf:"analyzer"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
	Diary      DiaryConfig      `koanf:"diary"`
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "text" or "json".
	Format string `koanf:"format"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// MaxUploadBytes caps multipart recording uploads.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MigrateOnStart bool   `koanf:"migrate_on_start"`
}

// RedisConfig configures the daily summary cache. An empty URL disables caching.
type RedisConfig struct {
	URL        string        `koanf:"url"`
	KeyPrefix  string        `koanf:"key_prefix"`
	SummaryTTL time.Duration `koanf:"summary_ttl"`
}

// StorageConfig configures S3-compatible object storage for audio and archives.
type StorageConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// OpenAIConfig configures transcription and text generation.
type OpenAIConfig struct {
	APIKey             string        `koanf:"api_key"`
	BaseURL            string        `koanf:"base_url"`
	ChatModel          string        `koanf:"chat_model"`
	TranscriptionModel string        `koanf:"transcription_model"`
	Language           string        `koanf:"language"`
	Timeout            time.Duration `koanf:"timeout"`
}

// AnalyzerConfig configures the external VAD analysis service.
type AnalyzerConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// ThresholdsConfig mirrors emotion.Thresholds so classifier cutoffs can be tuned in one place.
type ThresholdsConfig struct {
	Mid             float64 `koanf:"mid"`
	ArousalVeryHigh float64 `koanf:"arousal_very_high"`
	ArousalVeryLow  float64 `koanf:"arousal_very_low"`
	ValenceVeryHigh float64 `koanf:"valence_very_high"`
	ValenceVeryLow  float64 `koanf:"valence_very_low"`
	NeutralBandLow  float64 `koanf:"neutral_band_low"`
	NeutralBandHigh float64 `koanf:"neutral_band_high"`
}

// Emotion converts the configured cutoffs for the classifier.
func (t ThresholdsConfig) Emotion() emotion.Thresholds {
	return emotion.Thresholds{
		Mid:             t.Mid,
		ArousalVeryHigh: t.ArousalVeryHigh,
		ArousalVeryLow:  t.ArousalVeryLow,
		ValenceVeryHigh: t.ValenceVeryHigh,
		ValenceVeryLow:  t.ValenceVeryLow,
		NeutralBandLow:  t.NeutralBandLow,
		NeutralBandHigh: t.NeutralBandHigh,
	}
}

// DiaryConfig holds product rules.
type DiaryConfig struct {
	DailyRecordingLimit int    `koanf:"daily_recording_limit"`
	CalendarLimit       int    `koanf:"calendar_limit"`
	TimeZone            string `koanf:"time_zone"`
	MoodClusters        int    `koanf:"mood_clusters"`
	MoodMinClusterSize  int    `koanf:"mood_min_cluster_size"`
	RefreshConcurrency  int    `koanf:"refresh_concurrency"`
}

// New returns a Config populated with defaults.
func New() *Config {
	t := emotion.DefaultThresholds()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  25 << 20,
		},
		Redis: RedisConfig{KeyPrefix: "voice-diary", SummaryTTL: 10 * time.Minute},
		Storage: StorageConfig{
			Bucket: "voice-recordings",
			UseSSL: true,
		},
		OpenAI: OpenAIConfig{
			BaseURL:            "https://api.openai.com/v1",
			ChatModel:          "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
			Language:           "ja",
			Timeout:            60 * time.Second,
		},
		Analyzer: AnalyzerConfig{Timeout: 120 * time.Second},
		Thresholds: ThresholdsConfig{
			Mid:             t.Mid,
			ArousalVeryHigh: t.ArousalVeryHigh,
			ArousalVeryLow:  t.ArousalVeryLow,
			ValenceVeryHigh: t.ValenceVeryHigh,
			ValenceVeryLow:  t.ValenceVeryLow,
			NeutralBandLow:  t.NeutralBandLow,
			NeutralBandHigh: t.NeutralBandHigh,
		},
		Diary: DiaryConfig{
			DailyRecordingLimit: 5,
			CalendarLimit:       30,
			TimeZone:            "Asia/Tokyo",
			MoodClusters:        3,
			MoodMinClusterSize:  3,
			RefreshConcurrency:  4,
		},
	}
}

// Location resolves the diary time zone used for day boundaries.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Diary.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time_zone %q: %v", ErrInvalidConfig, c.Diary.TimeZone, err)
	}
	return loc, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr must not be empty", ErrInvalidConfig)
	}
	if c.Diary.DailyRecordingLimit <= 0 {
		return fmt.Errorf("%w: diary.daily_recording_limit must be positive", ErrInvalidConfig)
	}
	if c.Diary.CalendarLimit <= 0 {
		return fmt.Errorf("%w: diary.calendar_limit must be positive", ErrInvalidConfig)
	}
	t := c.Thresholds
	if !(t.ArousalVeryLow < t.Mid && t.Mid < t.ArousalVeryHigh) {
		return fmt.Errorf("%w: thresholds require arousal_very_low < mid < arousal_very_high", ErrInvalidConfig)
	}
	if !(t.ValenceVeryLow < t.Mid && t.Mid < t.ValenceVeryHigh) {
		return fmt.Errorf("%w: thresholds require valence_very_low < mid < valence_very_high", ErrInvalidConfig)
	}
	if !(t.NeutralBandLow <= t.Mid && t.Mid <= t.NeutralBandHigh) {
		return fmt.Errorf("%w: thresholds require neutral_band_low <= mid <= neutral_band_high", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
