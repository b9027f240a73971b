package app

import (
	"context"
	"time"

	"ocsf-standard-creator/internal/apperrors"
	"ocsf-standard-creator/internal/models"
	"ocsf-standard-creator/internal/observability/logging"
	"ocsf-standard-creator/internal/service/defaults"
)

// Report summarizes a completed run.
type Report struct {
	RunID      string
	EventName  string
	SourcePath string
	OutputPath string
	Fetched    bool
	Defaults   int
	Skipped    []defaults.Skipped
}

// Run executes setup, fetch, transform, write and publish in order. The
// first fatal error aborts the run.
func (a *Application) Run(ctx context.Context) (*Report, error) {
	a.StartupTime = time.Now().UTC()
	eventName := a.Cfg.Event.Name
	report := &Report{RunID: a.newRunID(), EventName: eventName}
	logger := logging.WithRun(report.RunID, eventName)

	logger.Info().
		Time("startupTime", a.StartupTime).
		Bool("skipFetch", a.Cfg.Event.SkipFetch).
		Msg("Standard creator run starting")

	err := a.run(ctx, report)
	a.metrics.RecordRun(err == nil, time.Since(a.StartupTime).Seconds())
	a.exportMetrics(ctx, logger)

	if err != nil {
		logger.Error().
			Err(err).
			Str("code", string(apperrors.CodeOf(err))).
			Msg("Standard creator run failed")
		return nil, err
	}

	logger.Info().
		Str("outputPath", report.OutputPath).
		Int("defaults", report.Defaults).
		Int("skipped", len(report.Skipped)).
		Dur("duration", time.Since(a.StartupTime)).
		Msg("Standard creator run completed")
	return report, nil
}

func (a *Application) run(ctx context.Context, report *Report) error {
	eventName := report.EventName

	if err := a.layout.Ensure(); err != nil {
		return err
	}

	if a.Cfg.Event.SkipFetch {
		exists, err := a.layout.SourceExists(eventName)
		if err != nil {
			return err
		}
		if !exists {
			path, _ := a.layout.SourcePath(eventName)
			return apperrors.Newf(apperrors.CodeFilesystem, "skip fetch",
				"source schema not found; run without -skip-fetch to download it").WithPath(path)
		}
	} else {
		body, err := a.fetcher.FetchClass(ctx, eventName, a.Cfg.Registry.Profiles)
		if err != nil {
			return err
		}
		if _, err := a.layout.WriteSource(eventName, body); err != nil {
			return err
		}
		report.Fetched = true
	}

	sourcePath, err := a.layout.SourcePath(eventName)
	if err != nil {
		return err
	}
	report.SourcePath = sourcePath

	result, out, err := a.transformer.TransformFile(sourcePath)
	if err != nil {
		return err
	}
	report.Defaults = len(result.Defaults)
	report.Skipped = result.Skipped
	outputPath, err := a.layout.WriteOutput(eventName, out)
	if err != nil {
		return err
	}
	report.OutputPath = outputPath

	if a.Cfg.Event.Print {
		if _, err := a.stdout.Write(out); err != nil {
			return apperrors.New(apperrors.CodeFilesystem, "write stdout", err)
		}
	}

	event := models.DefaultsGenerated{
		EventType:  models.EventTypeDefaultsGenerated,
		RunID:      report.RunID,
		EventName:  eventName,
		Timestamp:  time.Now().UnixMilli(),
		SourcePath: sourcePath,
		OutputPath: outputPath,
		Defaults:   result.Defaults,
		Skipped:    toSkippedModels(result.Skipped),
		Fetched:    report.Fetched,
	}
	if report.Fetched {
		event.SchemaURL = a.fetcher.ClassURL(eventName, a.Cfg.Registry.Profiles)
	}
	if err := a.publisher.Publish(ctx, models.EventTypeDefaultsGenerated, eventName, event); err != nil {
		return apperrors.New(apperrors.CodePublish, "publish defaults", err)
	}
	return nil
}
