package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file
// 3. BOT_* environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow missing config file; defaults plus environment must then suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("server.listen_addr", DefaultServerListenAddr)
	v.SetDefault("server.max_handlers", DefaultServerMaxHandlers)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("line.api_base_url", DefaultLineAPIBaseURL)
	v.SetDefault("line.request_timeout", DefaultLineRequestTimeout)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.operation_timeout", DefaultDBOperationTimeout)

	v.SetDefault("dialogue.regions", DefaultDialogueRegions)
	v.SetDefault("dialogue.list_size", DefaultDialogueListSize)
	v.SetDefault("dialogue.session_ttl", DefaultDialogueSessionTTL)
	v.SetDefault("dialogue.keyword_surprise", DefaultKeywordSurprise)
	v.SetDefault("dialogue.keyword_top_rated", DefaultKeywordTopRated)
	v.SetDefault("dialogue.keyword_add_venue", DefaultKeywordAddVenue)

	v.SetDefault("dialogue.messages.pick_region", DefaultDialogueMessages.PickRegion)
	v.SetDefault("dialogue.messages.pick_category", DefaultDialogueMessages.PickCategory)
	v.SetDefault("dialogue.messages.pick_region_first", DefaultDialogueMessages.PickRegionFirst)
	v.SetDefault("dialogue.messages.ask_title", DefaultDialogueMessages.AskTitle)
	v.SetDefault("dialogue.messages.ask_rating", DefaultDialogueMessages.AskRating)
	v.SetDefault("dialogue.messages.thanks_rating", DefaultDialogueMessages.ThanksRating)
	v.SetDefault("dialogue.messages.venue_not_found", DefaultDialogueMessages.VenueNotFound)
	v.SetDefault("dialogue.messages.no_results", DefaultDialogueMessages.NoResults)
	v.SetDefault("dialogue.messages.no_weather", DefaultDialogueMessages.NoWeather)
	v.SetDefault("dialogue.messages.general_error", DefaultDialogueMessages.GeneralError)
	v.SetDefault("dialogue.messages.fallback", DefaultDialogueMessages.Fallback)

	v.SetDefault("weather.timeout", DefaultWeatherTimeout)
	v.SetDefault("weather.failure_threshold", DefaultWeatherFailureThreshold)
	v.SetDefault("weather.cooldown_period", DefaultWeatherCooldownPeriod)

	v.SetDefault("scheduler.tasks", DefaultSchedulerTasks)
}
