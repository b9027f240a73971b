// Package apperrors provides the error taxonomy shared by the pipeline stages.
package apperrors

// Code is a machine-readable error category.
type Code string

const (
	// CodeUnknown represents an error that did not originate in this module.
	CodeUnknown Code = "UNKNOWN"

	// Registry errors
	CodeNetwork Code = "NETWORK"

	// Input errors
	CodeParse          Code = "PARSE"
	CodeSchemaShape    Code = "SCHEMA_SHAPE"
	CodeAttributeShape Code = "ATTRIBUTE_SHAPE"

	// Unknown attribute type tags are recorded and skipped, never returned as fatal.
	CodeUnknownAttributeType Code = "UNKNOWN_ATTRIBUTE_TYPE"

	// Environment errors
	CodeFilesystem Code = "FILESYSTEM"
	CodeConfig     Code = "CONFIG"
	CodePublish    Code = "PUBLISH"
)

// ExitCode maps a code to the process exit status.
func (c Code) ExitCode() int {
	switch c {
	case CodeConfig:
		return 2
	case CodeNetwork:
		return 3
	case CodeParse, CodeSchemaShape, CodeAttributeShape:
		return 4
	case CodeFilesystem:
		return 5
	case CodePublish:
		return 6
	case CodeUnknownAttributeType:
		return 0
	default:
		return 1
	}
}
