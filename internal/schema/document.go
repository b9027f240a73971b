// Package schema decodes event class schemas retrieved from a schema registry.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"ocsf-standard-creator/internal/apperrors"
)

// TypeTag is the declared primitive or complex kind of an attribute.
type TypeTag string

const (
	TypeString    TypeTag = "string_t"
	TypeInteger   TypeTag = "integer_t"
	TypeTimestamp TypeTag = "timestamp_t"
	TypeObject    TypeTag = "object_t"
)

// Document is an event class schema. Only the attribute list is retained.
type Document struct {
	Attributes []AttributeEntry
}

// AttributeEntry pairs an attribute name with its spec. On the wire an entry
// is a single-key object {"<name>": {...spec...}}.
type AttributeEntry struct {
	Name string
	Spec AttributeSpec
}

// AttributeSpec describes one attribute. Fields other than "type" are kept
// verbatim in Extra. HasType is false only when the "type" key is absent; a
// non-string type value is kept as its raw JSON text.
type AttributeSpec struct {
	Type    TypeTag
	HasType bool
	Extra   map[string]json.RawMessage
}

// Parse decodes raw schema text.
//
// Malformed JSON is a PARSE error. A missing or non-array "attributes" value,
// or an entry that is not an object, is a SCHEMA_SHAPE error. A spec that is
// not an object is an ATTRIBUTE_SHAPE error. Only the first key of each entry
// is consumed; empty entries are skipped.
func Parse(data []byte) (*Document, error) {
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, apperrors.New(apperrors.CodeParse, "parse schema", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, apperrors.Newf(apperrors.CodeSchemaShape, "parse schema", "document is not a JSON object")
	}

	rawAttrs, ok := top["attributes"]
	if !ok || isNull(rawAttrs) {
		return nil, apperrors.Newf(apperrors.CodeSchemaShape, "parse schema", `missing "attributes"`)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawAttrs, &entries); err != nil {
		return nil, apperrors.Newf(apperrors.CodeSchemaShape, "parse schema", `"attributes" is not an array`)
	}

	doc := &Document{Attributes: make([]AttributeEntry, 0, len(entries))}
	for i, raw := range entries {
		entry, ok, err := decodeEntry(raw)
		if err != nil {
			err.Op = fmt.Sprintf("%s %d", err.Op, i)
			return nil, err
		}
		if !ok {
			log.Warn().Int("index", i).Msg("Attribute entry has no name, skipping")
			continue
		}
		doc.Attributes = append(doc.Attributes, entry)
	}
	return doc, nil
}

// UnmarshalJSON decodes a single-key entry object.
func (e *AttributeEntry) UnmarshalJSON(data []byte) error {
	entry, ok, err := decodeEntry(data)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Newf(apperrors.CodeSchemaShape, "decode attribute entry", "entry has no attribute name")
	}
	*e = entry
	return nil
}

// MarshalJSON encodes the entry as a single-key object.
func (e AttributeEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]AttributeSpec{e.Name: e.Spec})
}

// MarshalJSON encodes the spec with its type merged into the extra fields.
func (s AttributeSpec) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+1)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.HasType {
		typ, err := json.Marshal(string(s.Type))
		if err != nil {
			return nil, err
		}
		out["type"] = typ
	}
	return json.Marshal(out)
}

// decodeEntry reports ok=false for an entry object without keys.
func decodeEntry(data []byte) (AttributeEntry, bool, *apperrors.Error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return AttributeEntry{}, false, apperrors.New(apperrors.CodeParse, "decode attribute entry", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return AttributeEntry{}, false, apperrors.Newf(apperrors.CodeSchemaShape, "decode attribute entry", "entry is not an object")
	}
	if !dec.More() {
		return AttributeEntry{}, false, nil
	}

	tok, err = dec.Token()
	if err != nil {
		return AttributeEntry{}, false, apperrors.New(apperrors.CodeParse, "decode attribute entry", err)
	}
	name, _ := tok.(string)

	var rawSpec json.RawMessage
	if err := dec.Decode(&rawSpec); err != nil {
		return AttributeEntry{}, false, apperrors.New(apperrors.CodeParse, "decode attribute entry", err).WithAttribute(name)
	}

	spec, specErr := decodeSpec(rawSpec)
	if specErr != nil {
		return AttributeEntry{}, false, specErr.WithAttribute(name)
	}
	return AttributeEntry{Name: name, Spec: spec}, true, nil
}

func decodeSpec(data json.RawMessage) (AttributeSpec, *apperrors.Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return AttributeSpec{}, apperrors.Newf(apperrors.CodeAttributeShape, "decode attribute spec", "spec is not an object")
	}

	spec := AttributeSpec{Extra: make(map[string]json.RawMessage, len(fields))}
	for k, v := range fields {
		if k != "type" {
			spec.Extra[k] = v
			continue
		}
		spec.HasType = true
		var tag string
		if err := json.Unmarshal(v, &tag); err != nil || isNull(v) {
			spec.Type = TypeTag(bytes.TrimSpace(v))
			continue
		}
		spec.Type = TypeTag(tag)
	}
	return spec, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
