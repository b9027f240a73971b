// Package observability exports run metrics for a batch job.
package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"
)

// ExportConfig selects where metrics go when a run ends. Both targets may be
// set; an empty config exports nothing.
type ExportConfig struct {
	TextfilePath   string // node_exporter textfile collector path
	PushgatewayURL string
	Job            string
	Grouping       map[string]string
}

// Exporter writes a gatherer's metrics once per run.
type Exporter struct {
	cfg      ExportConfig
	gatherer prometheus.Gatherer
}

// NewExporter creates an exporter for the given gatherer.
func NewExporter(cfg ExportConfig, gatherer prometheus.Gatherer) *Exporter {
	if cfg.Job == "" {
		cfg.Job = "ocsf_standard_creator"
	}
	return &Exporter{cfg: cfg, gatherer: gatherer}
}

// Enabled reports whether any export target is configured.
func (e *Exporter) Enabled() bool {
	return e.cfg.TextfilePath != "" || e.cfg.PushgatewayURL != ""
}

// Export writes metrics to every configured target.
func (e *Exporter) Export(ctx context.Context) error {
	if e.cfg.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(e.cfg.TextfilePath, e.gatherer); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
		log.Debug().Str("path", e.cfg.TextfilePath).Msg("Metrics written to textfile")
	}

	if e.cfg.PushgatewayURL != "" {
		pusher := push.New(e.cfg.PushgatewayURL, e.cfg.Job).Gatherer(e.gatherer)
		for k, v := range e.cfg.Grouping {
			pusher = pusher.Grouping(k, v)
		}
		if err := pusher.PushContext(ctx); err != nil {
			return fmt.Errorf("push metrics: %w", err)
		}
		log.Debug().Str("url", e.cfg.PushgatewayURL).Str("job", e.cfg.Job).Msg("Metrics pushed")
	}
	return nil
}
