// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/broidkit/skype-bridge/internal/skype"
)

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig          `yaml:"server"`
	Credentials   CredentialsConfig     `yaml:"credentials"`
	Connector     skype.ConnectorConfig `yaml:"connector"`
	Bridge        BridgeConfig          `yaml:"bridge"`
	Observability ObservabilityConfig   `yaml:"observability"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	WebhookPath     string        `yaml:"webhook_path" validate:"startswith=/"`
	StreamPath      string        `yaml:"stream_path" validate:"startswith=/"`
	PollPath        string        `yaml:"poll_path" validate:"startswith=/"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CredentialsConfig holds the Bot Framework credential pair.
type CredentialsConfig struct {
	AppID       string `yaml:"app_id"`
	AppPassword string `yaml:"app_password"`
}

// BridgeConfig holds the adapter configuration.
type BridgeConfig struct {
	// ServiceID identifies this adapter instance; generated when empty.
	ServiceID string `yaml:"service_id"`
	// QueueSize bounds the normalized activity stream buffer.
	QueueSize int `yaml:"queue_size" validate:"gte=0"`
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			WebhookPath:     "/api/v1/webhook",
			StreamPath:      "/api/v1/stream",
			PollPath:        "/api/v1/poll",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Connector: skype.DefaultConnectorConfig(),
		Bridge: BridgeConfig{
			QueueSize: 100,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Load loads configuration from a YAML file over the defaults. A
// missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration using struct tags plus
// cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	// The credential pair is all-or-nothing: a lone app id or password
	// can never authenticate.
	if (c.Credentials.AppID == "") != (c.Credentials.AppPassword == "") {
		return fmt.Errorf("credentials.app_id and credentials.app_password must be set together")
	}

	return nil
}

// formatValidationErrors turns validator errors into actionable messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed %q validation",
			fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
