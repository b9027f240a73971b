// Package app wires the generator pipeline: directory setup, schema fetch,
// default derivation, output and publishing.
package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"ocsf-standard-creator/internal/config"
	"ocsf-standard-creator/internal/events"
	"ocsf-standard-creator/internal/models"
	"ocsf-standard-creator/internal/observability"
	"ocsf-standard-creator/internal/observability/logging"
	"ocsf-standard-creator/internal/observability/metrics"
	"ocsf-standard-creator/internal/registry"
	"ocsf-standard-creator/internal/service/defaults"
	"ocsf-standard-creator/internal/storage"
)

// Fetcher retrieves raw schema text for an event class.
type Fetcher interface {
	ClassURL(eventName string, profiles []string) string
	FetchClass(ctx context.Context, eventName string, profiles []string) ([]byte, error)
}

// Publisher announces generated documents.
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context, eventType, key string, event any) error
	Close() error
}

// Application holds process-wide state for one generator run.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	layout      storage.Layout
	fetcher     Fetcher
	transformer *defaults.Transformer
	publisher   Publisher
	metrics     *metrics.Metrics
	exporter    *observability.Exporter
	stdout      io.Writer
	newRunID    func() string
}

// Option overrides a collaborator of the Application.
type Option func(*Application)

// WithFetcher replaces the registry client.
func WithFetcher(f Fetcher) Option {
	return func(a *Application) { a.fetcher = f }
}

// WithPublisher replaces the Kafka publisher.
func WithPublisher(p Publisher) Option {
	return func(a *Application) { a.publisher = p }
}

// WithMetrics uses m, exported from gatherer, instead of the global metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(a *Application) {
		a.metrics = m
		a.exporter = newExporter(a.Cfg, gatherer)
	}
}

// WithStdout sets where -print output goes.
func WithStdout(w io.Writer) Option {
	return func(a *Application) { a.stdout = w }
}

// WithRunID fixes the run id generator.
func WithRunID(fn func() string) Option {
	return func(a *Application) { a.newRunID = fn }
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config, opts ...Option) *Application {
	a := &Application{
		Cfg:      cfg,
		layout:   storage.Layout{SourceDir: cfg.Storage.SourceDir, OutputDir: cfg.Storage.OutputDir},
		metrics:  metrics.DefaultMetrics,
		exporter: newExporter(cfg, metrics.Registry),
		stdout:   os.Stdout,
		newRunID: uuid.NewString,
	}
	a.Logger = logging.WithComponent("application")

	for _, opt := range opts {
		opt(a)
	}

	if a.fetcher == nil {
		a.fetcher = registry.NewClient(&registry.ClientConfig{
			BaseURL:            cfg.Registry.BaseURL,
			APIVersion:         cfg.Registry.APIVersion,
			Timeout:            cfg.Registry.Timeout,
			InsecureSkipVerify: cfg.Registry.InsecureSkipVerify,
		}, a.metrics)
	}
	if a.publisher == nil {
		a.publisher = events.New(&events.Config{
			Enabled:   cfg.Kafka.Enabled,
			Brokers:   cfg.Kafka.Brokers,
			Topic:     cfg.Kafka.Topic,
			Principal: cfg.Kafka.Principal,
		}, a.metrics)
	}
	a.transformer = defaults.New(a.metrics)

	a.Logger.Debug().
		Str("eventName", cfg.Event.Name).
		Bool("skipFetch", cfg.Event.SkipFetch).
		Bool("kafka", a.publisher.Enabled()).
		Msg("Standard creator application created")
	return a
}

func newExporter(cfg *config.Config, gatherer prometheus.Gatherer) *observability.Exporter {
	return observability.NewExporter(observability.ExportConfig{
		TextfilePath:   cfg.Observability.MetricsTextfile,
		PushgatewayURL: cfg.Observability.PushgatewayURL,
		Grouping:       map[string]string{"event": cfg.Event.Name},
	}, gatherer)
}

// Shutdown releases resources held by the application.
func (a *Application) Shutdown() {
	if err := a.publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Publisher close failed")
	}
	a.Logger.Debug().Msg("Standard creator shutting down")
}

// exportMetrics is best-effort; a failed export never fails the run.
func (a *Application) exportMetrics(ctx context.Context, logger zerolog.Logger) {
	if !a.exporter.Enabled() {
		return
	}
	if err := a.exporter.Export(ctx); err != nil {
		logger.Warn().Err(err).Msg("Metrics export failed")
	}
}

func toSkippedModels(skipped []defaults.Skipped) []models.SkippedAttribute {
	if len(skipped) == 0 {
		return nil
	}
	out := make([]models.SkippedAttribute, 0, len(skipped))
	for _, s := range skipped {
		out = append(out, models.SkippedAttribute{Name: s.Name, Type: string(s.Type)})
	}
	return out
}
