// Package defaults derives a default instance document from an event class
// schema: every attribute with a known type tag maps to a placeholder value.
package defaults

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ocsf-standard-creator/internal/apperrors"
	"ocsf-standard-creator/internal/observability/logging"
	"ocsf-standard-creator/internal/observability/metrics"
	"ocsf-standard-creator/internal/schema"
)

// Skipped records an attribute left out of the document because its type
// tag is not in the policy.
type Skipped struct {
	Name string         `json:"name"`
	Type schema.TypeTag `json:"type"`
}

// Result is the outcome of one transform.
type Result struct {
	Defaults map[string]any
	Skipped  []Skipped
}

// Transformer applies a Policy to schema documents.
type Transformer struct {
	policy    Policy
	validator *schema.Validator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates a transformer using DefaultPolicy.
func New(m *metrics.Metrics) *Transformer {
	return NewWithPolicy(DefaultPolicy(), m)
}

// NewWithPolicy creates a transformer with a custom policy.
func NewWithPolicy(policy Policy, m *metrics.Metrics) *Transformer {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Transformer{
		policy:    policy,
		validator: schema.New(),
		metrics:   m,
		logger:    logging.WithComponent("transformer"),
	}
}

// Transform maps each attribute to its default value. Later entries with the
// same name replace earlier ones. An attribute without a "type" key is an
// ATTRIBUTE_SHAPE error; any other unrecognised type is logged and skipped.
func (t *Transformer) Transform(doc *schema.Document) (*Result, error) {
	start := time.Now()
	if err := t.validator.Validate(doc); err != nil {
		return nil, err
	}

	res := &Result{Defaults: make(map[string]any, len(doc.Attributes))}
	for _, entry := range doc.Attributes {
		value, ok := t.policy.Lookup(entry.Spec.Type)
		if !ok {
			attrLogger := logging.WithAttribute(t.logger, entry.Name, string(entry.Spec.Type))
			attrLogger.Warn().
				Str("code", string(apperrors.CodeUnknownAttributeType)).
				RawJSON("entry", entryJSON(entry)).
				Msg("Unknown attribute type, skipping")
			t.metrics.RecordSkipped(string(entry.Spec.Type))
			res.Skipped = append(res.Skipped, Skipped{Name: entry.Name, Type: entry.Spec.Type})
			continue
		}
		res.Defaults[entry.Name] = value
		t.metrics.RecordDefaulted(string(entry.Spec.Type))
	}

	t.metrics.RecordTransform(time.Since(start).Seconds())
	t.logger.Debug().
		Int("attributes", len(doc.Attributes)).
		Int("defaults", len(res.Defaults)).
		Int("skipped", len(res.Skipped)).
		Msg("Schema transformed")
	return res, nil
}

// TransformBytes parses raw schema text and transforms it.
func (t *Transformer) TransformBytes(data []byte) (*Result, error) {
	doc, err := schema.Parse(data)
	if err != nil {
		return nil, err
	}
	return t.Transform(doc)
}

// TransformFile reads the schema at path, transforms it and returns the
// result with its serialized document. Errors carry path.
func (t *Transformer) TransformFile(path string) (*Result, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apperrors.New(apperrors.CodeFilesystem, "read source", err).WithPath(path)
	}
	res, err := t.TransformBytes(data)
	if err != nil {
		return nil, nil, withPath(err, path)
	}
	out, err := Marshal(res.Defaults)
	if err != nil {
		return nil, nil, apperrors.New(apperrors.CodeUnknown, "encode defaults", err).WithPath(path)
	}
	return res, out, nil
}

// withPath attaches path to a categorized error that lacks one.
func withPath(err error, path string) error {
	var e *apperrors.Error
	if errors.As(err, &e) && e.Path == "" {
		return e.WithPath(path)
	}
	return err
}

// Marshal serializes a default document deterministically: keys sorted,
// four-space indent, no HTML escaping, trailing newline.
func Marshal(defaults map[string]any) ([]byte, error) {
	if defaults == nil {
		defaults = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(defaults); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func entryJSON(entry schema.AttributeEntry) []byte {
	data, err := json.Marshal(entry)
	if err != nil {
		return []byte("null")
	}
	return data
}
