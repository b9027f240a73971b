package schema

import (
	"testing"

	"ocsf-standard-creator/internal/apperrors"
)

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
		code apperrors.Code
	}{
		{"nil document", nil, apperrors.CodeSchemaShape},
		{"empty", &Document{}, ""},
		{"typed", &Document{Attributes: []AttributeEntry{{Name: "a", Spec: AttributeSpec{Type: TypeString, HasType: true}}}}, ""},
		{"unknown type is valid", &Document{Attributes: []AttributeEntry{{Name: "a", Spec: AttributeSpec{Type: "array_t", HasType: true}}}}, ""},
		{"empty type is valid", &Document{Attributes: []AttributeEntry{{Name: "a", Spec: AttributeSpec{HasType: true}}}}, ""},
		{"missing type", &Document{Attributes: []AttributeEntry{
			{Name: "a", Spec: AttributeSpec{Type: TypeString, HasType: true}},
			{Name: "b"},
		}}, apperrors.CodeAttributeShape},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.doc)
			if got := apperrors.CodeOf(err); got != tt.code {
				t.Errorf("expected code %q, got %q (err: %v)", tt.code, got, err)
			}
		})
	}
}
