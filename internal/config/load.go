package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables use the MINUTE_ prefix with
// underscores separating groups (e.g. MINUTE_SERVER_PORT) and take
// precedence over file values. Returns a validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MINUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the defaults applied when neither the config
// file nor the environment provides a value. Keys without a meaningful
// default are registered as empty so Unmarshal sees their env values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("llm.gemini_api_key", "")

	v.SetDefault("llm.transcription_model", "gemini-2.0-flash")
	v.SetDefault("llm.summary_model", "gemini-2.0-flash")
	v.SetDefault("llm.extraction_model", "gemini-2.0-flash")

	v.SetDefault("workflow.retry_delays", []time.Duration{
		1 * time.Second,
		5 * time.Second,
		15 * time.Second,
	})
	v.SetDefault("workflow.worker_count", 2)
	v.SetDefault("workflow.queue_size", 100)
	v.SetDefault("workflow.stuck_task_age", 30*time.Minute)

	v.SetDefault("ingest.enabled", false)
	v.SetDefault("ingest.watch_dir", "")
	v.SetDefault("ingest.project_id", "")
	v.SetDefault("ingest.organization_id", "")
	v.SetDefault("ingest.created_by", "")

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout", 10*time.Second)
}
