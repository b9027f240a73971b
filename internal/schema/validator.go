package schema

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ocsf-standard-creator/internal/apperrors"
)

// Validator checks that a decoded schema is complete enough to derive defaults.
type Validator struct {
	logger zerolog.Logger
}

func New() *Validator {
	return &Validator{
		logger: log.With().Str("component", "schema").Logger(),
	}
}

// Validate fails with ATTRIBUTE_SHAPE on the first attribute whose spec has
// no "type" key. Present but unrecognised types are left to the transformer.
func (v *Validator) Validate(doc *Document) error {
	if doc == nil {
		return apperrors.Newf(apperrors.CodeSchemaShape, "validate schema", "no document")
	}
	for _, entry := range doc.Attributes {
		if !entry.Spec.HasType {
			return apperrors.Newf(apperrors.CodeAttributeShape, "validate schema", `missing "type"`).
				WithAttribute(entry.Name)
		}
	}
	v.logger.Debug().Int("attributes", len(doc.Attributes)).Msg("schema validated")
	return nil
}
