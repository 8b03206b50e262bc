// Package config manages application configuration from environment variables,
// config files, and default values.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration indicates a configuration loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration. Values can be set via environment
// variables prefixed with BOT_ (e.g., BOT_LINE_CHANNEL_SECRET) or through config.yaml.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Line      LineConfig      `mapstructure:"line"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dialogue  DialogueConfig  `mapstructure:"dialogue"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ServerConfig controls the webhook HTTP server.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"      validate:"required"`
	MaxHandlers     int64         `mapstructure:"max_handlers"     validate:"required,gt=0"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,min=1s"`
}

// LineConfig holds LINE Messaging API credentials and addressing.
type LineConfig struct {
	ChannelSecret  string        `mapstructure:"channel_secret" validate:"required"`
	ChannelToken   string        `mapstructure:"channel_token"  validate:"required"`
	APIBaseURL     string        `mapstructure:"api_base_url"   validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,min=1s"`

	// ObserverUserID receives a push summary of every venue submission.
	ObserverUserID string `mapstructure:"observer_user_id" validate:"required"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path" validate:"required"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"required,min=1s"`
}

// DialogueConfig carries the user-facing keyword strings, prompt messages, and
// conversation tuning. The selectable region list is configuration, not code.
type DialogueConfig struct {
	Regions    []string      `mapstructure:"regions"     validate:"required,min=1"`
	ListSize   int           `mapstructure:"list_size"   validate:"required,min=1,max=10"`
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"required,min=1m"`

	KeywordSurprise string `mapstructure:"keyword_surprise" validate:"required"`
	KeywordTopRated string `mapstructure:"keyword_top_rated" validate:"required"`
	KeywordAddVenue string `mapstructure:"keyword_add_venue" validate:"required"`

	Messages DialogueMessages `mapstructure:"messages"`
}

// DialogueMessages are the canned prompt texts the bot replies with.
type DialogueMessages struct {
	PickRegion      string `mapstructure:"pick_region"       validate:"required"`
	PickCategory    string `mapstructure:"pick_category"     validate:"required"`
	PickRegionFirst string `mapstructure:"pick_region_first" validate:"required"`
	AskTitle        string `mapstructure:"ask_title"         validate:"required"`
	AskRating       string `mapstructure:"ask_rating"        validate:"required"`
	ThanksRating    string `mapstructure:"thanks_rating"     validate:"required"`
	VenueNotFound   string `mapstructure:"venue_not_found"   validate:"required"`
	NoResults       string `mapstructure:"no_results"        validate:"required"`
	NoWeather       string `mapstructure:"no_weather"        validate:"required"`
	GeneralError    string `mapstructure:"general_error"     validate:"required"`
	Fallback        string `mapstructure:"fallback"          validate:"required"`
}

// WeatherConfig controls the best-effort weather lookup collaborator.
// An empty endpoint disables the lookup; attraction results are then sent
// without a weather report.
type WeatherConfig struct {
	Endpoint         string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Timeout          time.Duration `mapstructure:"timeout"  validate:"required,min=1s,max=30s"`
	FailureThreshold uint32        `mapstructure:"failure_threshold" validate:"required,gt=0"`
	CooldownPeriod   time.Duration `mapstructure:"cooldown_period"   validate:"required,min=1s"`
}

// SchedulerConfig maps task names to their cron schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Schedule string `mapstructure:"schedule"`
	Enabled  bool   `mapstructure:"enabled"`
}
