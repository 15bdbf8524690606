package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Workflow WorkflowConfig `mapstructure:"workflow" validate:"required"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains the model integration settings shared by the
// transcription, summarization and task extraction collaborators.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"      validate:"required"`
	TranscriptionModel string `mapstructure:"transcription_model" validate:"required"`
	SummaryModel       string `mapstructure:"summary_model"       validate:"required"`
	ExtractionModel    string `mapstructure:"extraction_model"    validate:"required"`
}

// WorkflowConfig tunes the conversion pipeline and the background task
// runner that executes it.
type WorkflowConfig struct {
	// RetryDelays is the backoff schedule applied between step retries.
	// A step is attempted at most len(RetryDelays)+1 times.
	RetryDelays []time.Duration `mapstructure:"retry_delays" validate:"required,min=1"`

	// WorkerCount is the number of concurrent conversion workers.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// QueueSize is the buffer size of the in-memory task queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`

	// StuckTaskAge is how long a task may sit in "processing" before it
	// is considered stuck and reset.
	StuckTaskAge time.Duration `mapstructure:"stuck_task_age" validate:"required"`
}

// IngestConfig configures the optional directory watcher that registers
// dropped audio files as recordings. Ingested recordings are attributed
// to the configured project, organization and user.
type IngestConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	WatchDir       string `mapstructure:"watch_dir"       validate:"required_if=Enabled true"`
	ProjectID      string `mapstructure:"project_id"      validate:"required_if=Enabled true,omitempty,uuid"`
	OrganizationID string `mapstructure:"organization_id" validate:"required_if=Enabled true,omitempty,uuid"`
	CreatedBy      string `mapstructure:"created_by"      validate:"required_if=Enabled true,omitempty,uuid"`
}

// NotifyConfig configures completion notification delivery. When
// WebhookURL is empty, notifications are logged instead of delivered.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}
