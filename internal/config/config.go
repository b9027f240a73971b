// Package config loads generator configuration from the environment and
// command-line flags. Flags take precedence over environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"ocsf-standard-creator/internal/apperrors"
)

// Config is the full generator configuration.
type Config struct {
	Service       ServiceConfig
	Event         EventConfig
	Registry      RegistryConfig
	Storage       StorageConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies this process to downstream systems.
type ServiceConfig struct {
	Principal string `env:"SERVICE_PRINCIPAL" envDefault:"svc-standard-creator"`
}

// EventConfig selects the event class to generate defaults for.
type EventConfig struct {
	Name      string `env:"EVENT_NAME" envDefault:"base_event"`
	SkipFetch bool   `env:"SKIP_FETCH"`
	Print     bool   `env:"PRINT_OUTPUT"`
}

// RegistryConfig configures access to the schema registry.
type RegistryConfig struct {
	BaseURL            string        `env:"REGISTRY_BASE_URL" envDefault:"https://schema.ocsf.io"`
	APIVersion         string        `env:"REGISTRY_API_VERSION" envDefault:"1.0.0"`
	Profiles           []string      `env:"REGISTRY_PROFILES" envSeparator:","`
	Timeout            time.Duration `env:"REGISTRY_TIMEOUT" envDefault:"30s"`
	InsecureSkipVerify bool          `env:"REGISTRY_INSECURE_SKIP_VERIFY"`
}

// StorageConfig names the schema and output directories.
type StorageConfig struct {
	SourceDir string `env:"SOURCE_DIR" envDefault:"base_standards"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"standards"`
}

// KafkaConfig configures publishing of generated documents.
type KafkaConfig struct {
	Enabled   bool     `env:"KAFKA_ENABLED"`
	Brokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic     string   `env:"KAFKA_TOPIC" envDefault:"ocsf.defaults.generated"`
	Principal string   `env:"KAFKA_PRINCIPAL"`
}

// ObservabilityConfig configures logging and metrics export.
type ObservabilityConfig struct {
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"console"`
	MetricsTextfile string `env:"METRICS_TEXTFILE"`
	PushgatewayURL  string `env:"METRICS_PUSHGATEWAY_URL"`
}

// Load reads the environment, then applies flags parsed from args. A nil
// environ reads the process environment. flag.ErrHelp is returned unwrapped.
func Load(args []string, environ map[string]string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, apperrors.New(apperrors.CodeConfig, "parse env", err)
	}

	fs := flag.NewFlagSet("ocsf-standard-creator", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ocsf-standard-creator [flags] [event-name]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	profiles := strings.Join(cfg.Registry.Profiles, ",")
	brokers := strings.Join(cfg.Kafka.Brokers, ",")

	fs.StringVar(&cfg.Event.Name, "event", cfg.Event.Name, "event class name")
	fs.BoolVar(&cfg.Event.SkipFetch, "skip-fetch", cfg.Event.SkipFetch, "use the schema already in the source directory")
	fs.BoolVar(&cfg.Event.Print, "print", cfg.Event.Print, "also write the generated document to stdout")
	fs.StringVar(&cfg.Registry.BaseURL, "registry-url", cfg.Registry.BaseURL, "schema registry base URL")
	fs.StringVar(&cfg.Registry.APIVersion, "api-version", cfg.Registry.APIVersion, "schema registry API version")
	fs.StringVar(&profiles, "profiles", profiles, "comma-separated profile list")
	fs.DurationVar(&cfg.Registry.Timeout, "timeout", cfg.Registry.Timeout, "registry request timeout")
	fs.BoolVar(&cfg.Registry.InsecureSkipVerify, "insecure-skip-verify", cfg.Registry.InsecureSkipVerify, "disable TLS certificate verification")
	fs.StringVar(&cfg.Storage.SourceDir, "source-dir", cfg.Storage.SourceDir, "directory for fetched schemas")
	fs.StringVar(&cfg.Storage.OutputDir, "output-dir", cfg.Storage.OutputDir, "directory for generated default documents")
	fs.BoolVar(&cfg.Kafka.Enabled, "kafka", cfg.Kafka.Enabled, "publish generated documents to Kafka")
	fs.StringVar(&brokers, "kafka-brokers", brokers, "comma-separated Kafka brokers")
	fs.StringVar(&cfg.Kafka.Topic, "kafka-topic", cfg.Kafka.Topic, "Kafka topic")
	fs.StringVar(&cfg.Observability.LogLevel, "log-level", cfg.Observability.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Observability.LogFormat, "log-format", cfg.Observability.LogFormat, "log format (console, json)")
	fs.StringVar(&cfg.Observability.MetricsTextfile, "metrics-textfile", cfg.Observability.MetricsTextfile, "write metrics to this textfile on exit")
	fs.StringVar(&cfg.Observability.PushgatewayURL, "pushgateway-url", cfg.Observability.PushgatewayURL, "push metrics to this Pushgateway on exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, apperrors.New(apperrors.CodeConfig, "parse flags", err)
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Event.Name = fs.Arg(0)
	default:
		return nil, apperrors.Newf(apperrors.CodeConfig, "parse flags", "at most one event name may be given")
	}

	cfg.Registry.Profiles = splitList(profiles)
	cfg.Kafka.Brokers = splitList(brokers)
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Event.Name == "":
		return apperrors.Newf(apperrors.CodeConfig, "validate config", "event name is required")
	case c.Registry.Timeout <= 0:
		return apperrors.Newf(apperrors.CodeConfig, "validate config", "registry timeout must be positive")
	case !c.Event.SkipFetch && c.Registry.BaseURL == "":
		return apperrors.Newf(apperrors.CodeConfig, "validate config", "registry base URL is required unless fetching is skipped")
	case c.Kafka.Enabled && len(c.Kafka.Brokers) == 0:
		return apperrors.Newf(apperrors.CodeConfig, "validate config", "kafka is enabled but no brokers are configured")
	case c.Kafka.Enabled && c.Kafka.Topic == "":
		return apperrors.Newf(apperrors.CodeConfig, "validate config", "kafka is enabled but no topic is configured")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
