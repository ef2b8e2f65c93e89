package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port            int           `envconfig:"PORT" default:"8000"`
	Environment     string        `envconfig:"ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	RateLimit       int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`

	// Violation logging
	LogFolder         string  `envconfig:"LOG_FOLDER" default:"non_compliance_logs"`
	LoggingEnabled    bool    `envconfig:"VIOLATION_LOGGING_ENABLED" default:"false"`
	CooldownSeconds   int     `envconfig:"VIOLATION_COOLDOWN_SECONDS" default:"10"`
	MinFaceConfidence float64 `envconfig:"MIN_FACE_CONFIDENCE" default:"47"`
	MaxPending        int     `envconfig:"VIOLATION_MAX_PENDING" default:"3"`
	Workers           int     `envconfig:"VIOLATION_WORKERS" default:"2"`
	JPEGQuality       int     `envconfig:"EVIDENCE_JPEG_QUALITY" default:"90"`

	// Compliance
	ComplianceConfigFile string `envconfig:"COMPLIANCE_CONFIG_FILE" default:"compliance_config.yaml"`

	// Providers
	DetectionProvider      string  `envconfig:"DETECTION_PROVIDER" default:"mock"`
	FaceProvider           string  `envconfig:"FACE_PROVIDER" default:"mock"`
	InferenceURL           string  `envconfig:"INFERENCE_URL" default:"http://localhost:5005"`
	DetectionMinConfidence float64 `envconfig:"DETECTION_MIN_CONFIDENCE" default:"0.25"`
	AWSRegion              string  `envconfig:"AWS_REGION" default:"us-east-1"`
	RekognitionCollection  string  `envconfig:"REKOGNITION_COLLECTION" default:"dressguard-faces"`

	// History (optional)
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"dressguard"`
	AutoMigrate  bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	// Outbound notifications (optional)
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.CooldownSeconds < 1 || c.CooldownSeconds > 300 {
		return fmt.Errorf("VIOLATION_COOLDOWN_SECONDS must be in [1,300], got %d", c.CooldownSeconds)
	}
	if c.MinFaceConfidence < 0 || c.MinFaceConfidence > 100 {
		return fmt.Errorf("MIN_FACE_CONFIDENCE must be in [0,100], got %v", c.MinFaceConfidence)
	}
	if c.MaxPending < 1 {
		return fmt.Errorf("VIOLATION_MAX_PENDING must be positive, got %d", c.MaxPending)
	}
	if c.Workers < 1 {
		return fmt.Errorf("VIOLATION_WORKERS must be positive, got %d", c.Workers)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.RateLimit)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("EVIDENCE_JPEG_QUALITY must be in [1,100], got %d", c.JPEGQuality)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HistoryEnabled reports whether violations are mirrored to Postgres.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}
