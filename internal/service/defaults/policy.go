package defaults

import "ocsf-standard-creator/internal/schema"

// TimestampPlaceholder is the fixed value emitted for timestamp_t attributes.
const TimestampPlaceholder = "2016-01-01T00:00:00.000Z"

// ValueFunc returns a fresh default value for one attribute.
type ValueFunc func() any

// Policy maps a declared type tag to its default value. Tags absent from the
// policy are unknown and skipped.
type Policy map[schema.TypeTag]ValueFunc

// DefaultPolicy returns the standard type to default-value table.
func DefaultPolicy() Policy {
	return Policy{
		schema.TypeString:    func() any { return "" },
		schema.TypeInteger:   func() any { return 0 },
		schema.TypeTimestamp: func() any { return TimestampPlaceholder },
		schema.TypeObject:    func() any { return map[string]any{} },
	}
}

// Lookup returns the value for tag and whether the tag is known.
func (p Policy) Lookup(tag schema.TypeTag) (any, bool) {
	fn, ok := p[tag]
	if !ok {
		return nil, false
	}
	return fn(), true
}
