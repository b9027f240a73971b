// Package models defines the data structures for published events.
package models

// EventTypeDefaultsGenerated identifies a DefaultsGenerated event.
const EventTypeDefaultsGenerated = "ocsf.defaults.generated"

// SkippedAttribute names an attribute left out for an unknown type tag.
type SkippedAttribute struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DefaultsGenerated announces a freshly written default document.
type DefaultsGenerated struct {
	EventType  string             `json:"eventType"`
	RunID      string             `json:"runId"`
	EventName  string             `json:"eventName"`
	Timestamp  int64              `json:"timestamp"`
	SourcePath string             `json:"sourcePath"`
	OutputPath string             `json:"outputPath"`
	SchemaURL  string             `json:"schemaUrl,omitempty"`
	Defaults   map[string]any     `json:"defaults"`
	Skipped    []SkippedAttribute `json:"skipped,omitempty"`
	Fetched    bool               `json:"fetched"`
}
