package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocsf-standard-creator/internal/apperrors"
	"ocsf-standard-creator/internal/config"
	"ocsf-standard-creator/internal/models"
	"ocsf-standard-creator/internal/observability/metrics"
)

const baseEventSchema = `{"name":"base_event","attributes":[
	{"message":{"type":"string_t"}},
	{"severity_id":{"type":"integer_t"}},
	{"time":{"type":"timestamp_t"}},
	{"metadata":{"type":"object_t"}},
	{"observables":{"type":"array_t"}}
]}`

const baseEventDefaults = "{\n" +
	"    \"message\": \"\",\n" +
	"    \"metadata\": {},\n" +
	"    \"severity_id\": 0,\n" +
	"    \"time\": \"2016-01-01T00:00:00.000Z\"\n" +
	"}\n"

type fakeFetcher struct {
	body     []byte
	err      error
	calls    int
	profiles []string
}

func (f *fakeFetcher) ClassURL(eventName string, profiles []string) string {
	return "https://registry.test/api/1.0.0/classes/" + eventName
}

func (f *fakeFetcher) FetchClass(ctx context.Context, eventName string, profiles []string) ([]byte, error) {
	f.calls++
	f.profiles = profiles
	return f.body, f.err
}

type fakePublisher struct {
	err    error
	events []models.DefaultsGenerated
	keys   []string
	closed bool
}

func (p *fakePublisher) Enabled() bool { return true }

func (p *fakePublisher) Publish(ctx context.Context, eventType, key string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, event.(models.DefaultsGenerated))
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type testEnv struct {
	cfg       *config.Config
	fetcher   *fakeFetcher
	publisher *fakePublisher
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	stdout    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.Load([]string{
		"-source-dir", filepath.Join(root, "base_standards"),
		"-output-dir", filepath.Join(root, "standards"),
	}, map[string]string{}, io.Discard)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return &testEnv{
		cfg:       cfg,
		fetcher:   &fakeFetcher{body: []byte(baseEventSchema)},
		publisher: &fakePublisher{},
		metrics:   metrics.NewMetrics(reg),
		registry:  reg,
		stdout:    &bytes.Buffer{},
	}
}

func (e *testEnv) app(opts ...Option) *Application {
	base := []Option{
		WithFetcher(e.fetcher),
		WithPublisher(e.publisher),
		WithMetrics(e.metrics, e.registry),
		WithStdout(e.stdout),
		WithRunID(func() string { return "run-1" }),
	}
	return New(e.cfg, append(base, opts...)...)
}

func TestRun_FetchTransformWrite(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Registry.Profiles = []string{"cloud"}

	report, err := env.app().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, env.fetcher.calls)
	assert.Equal(t, []string{"cloud"}, env.fetcher.profiles)
	assert.True(t, report.Fetched)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 4, report.Defaults)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "observables", report.Skipped[0].Name)

	source, err := os.ReadFile(report.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, baseEventSchema, string(source), "expected schema to be stored verbatim")

	output, err := os.ReadFile(report.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, baseEventDefaults, string(output))
	assert.Equal(t, filepath.Join(env.cfg.Storage.OutputDir, "base_event.json"), report.OutputPath)

	assert.Empty(t, env.stdout.String(), "expected nothing on stdout without -print")
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.RunsTotal.WithLabelValues("success")))
}

func TestRun_PublishesEvent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.app().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, env.publisher.events, 1)
	event := env.publisher.events[0]
	assert.Equal(t, []string{"base_event"}, env.publisher.keys)
	assert.Equal(t, models.EventTypeDefaultsGenerated, event.EventType)
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "base_event", event.EventName)
	assert.True(t, event.Fetched)
	assert.Equal(t, "https://registry.test/api/1.0.0/classes/base_event", event.SchemaURL)
	assert.Len(t, event.Defaults, 4)
	assert.Equal(t, []models.SkippedAttribute{{Name: "observables", Type: "array_t"}}, event.Skipped)
}

func TestRun_SkipFetchUsesExistingSource(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Event.SkipFetch = true

	require.NoError(t, os.MkdirAll(env.cfg.Storage.SourceDir, 0o755))
	schema := `{"attributes":[{"user_id":{"type":"string_t"}},{"count":{"type":"integer_t"}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.Storage.SourceDir, "base_event.json"), []byte(schema), 0o644))

	report, err := env.app().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, env.fetcher.calls)
	assert.False(t, report.Fetched)
	output, err := os.ReadFile(report.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"count\": 0,\n    \"user_id\": \"\"\n}\n", string(output))
	assert.Empty(t, env.publisher.events[0].SchemaURL)
}

func TestRun_SkipFetchMissingSource(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Event.SkipFetch = true

	_, err := env.app().Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeFilesystem))
	assert.Contains(t, err.Error(), "base_event.json")
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.RunsTotal.WithLabelValues("failed")))
}

func TestRun_FetchErrorAborts(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = apperrors.Newf(apperrors.CodeNetwork, "GET registry", "unexpected status 503")

	_, err := env.app().Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNetwork))

	_, statErr := os.Stat(filepath.Join(env.cfg.Storage.OutputDir, "base_event.json"))
	assert.True(t, os.IsNotExist(statErr), "expected no output after failed fetch")
	assert.Empty(t, env.publisher.events)
}

func TestRun_MalformedSchemaNamesFile(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.body = []byte(`{"attributes": [`)

	_, err := env.app().Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeParse))
	assert.Contains(t, err.Error(), filepath.Join(env.cfg.Storage.SourceDir, "base_event.json"))
}

func TestRun_MissingTypeAborts(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.body = []byte(`{"attributes":[{"orphan":{"caption":"no type"}}]}`)

	_, err := env.app().Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeAttributeShape))
	assert.Contains(t, err.Error(), "orphan")
}

func TestRun_PresentButUnrecognisedTypeSkipped(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.body = []byte(`{"attributes":[{},{"a":{"type":""}},{"n":{"type":null}},{"b":{"type":"string_t"}}]}`)

	report, err := env.app().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Defaults)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "a", report.Skipped[0].Name)
	assert.Equal(t, "n", report.Skipped[1].Name)
	output, err := os.ReadFile(report.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"b\": \"\"\n}\n", string(output))
}

func TestRun_MissingAttributesAborts(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.body = []byte(`{"name":"base_event"}`)

	_, err := env.app().Run(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CodeSchemaShape))
}

func TestRun_PublishFailure(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker unavailable")

	_, err := env.app().Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodePublish))
}

func TestRun_PrintWritesStdout(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Event.Print = true

	_, err := env.app().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, baseEventDefaults, env.stdout.String())
}

func TestRun_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.app().Run(context.Background())
	require.NoError(t, err)
	out1, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)

	second, err := env.app().Run(context.Background())
	require.NoError(t, err)
	out2, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
}

func TestRun_OutputDirCollision(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.cfg.Storage.OutputDir, []byte("file"), 0o644))

	_, err := env.app().Run(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CodeFilesystem))
	assert.Equal(t, 0, env.fetcher.calls, "expected setup to fail before fetching")
}

func TestRun_ExportsMetricsTextfile(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Observability.MetricsTextfile = filepath.Join(t.TempDir(), "creator.prom")

	_, err := env.app().Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(env.cfg.Observability.MetricsTextfile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `ocsf_standard_creator_runs_total{result="success"} 1`))
	assert.True(t, strings.Contains(string(data), `ocsf_standard_creator_attributes_skipped_total{type="array_t"} 1`))
}

func TestRun_WithRegistryClient(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		_, _ = w.Write([]byte(baseEventSchema))
	}))
	defer srv.Close()

	env := newTestEnv(t)
	env.cfg.Registry.BaseURL = srv.URL
	a := New(env.cfg,
		WithPublisher(env.publisher),
		WithMetrics(env.metrics, env.registry),
		WithStdout(env.stdout),
	)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/1.0.0/classes/base_event?profiles=", gotPath)
	assert.NotEmpty(t, report.RunID)

	output, err := os.ReadFile(report.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, baseEventDefaults, string(output))
}

func TestShutdown_ClosesPublisher(t *testing.T) {
	env := newTestEnv(t)
	a := env.app()

	a.Shutdown()
	assert.True(t, env.publisher.closed)
}
