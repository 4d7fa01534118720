package models

// FieldType enumerates the input types a field definition may take.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCurrency FieldType = "currency"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeLookup   FieldType = "lookup"
	FieldTypeProvider FieldType = "provider"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeCurrency,
		FieldTypeDate, FieldTypeSelect, FieldTypeBoolean, FieldTypeEmail,
		FieldTypePhone, FieldTypeLookup, FieldTypeProvider:
		return true
	}

	return false
}

// FieldSource points at an upstream activity field whose submitted value
// prefills this one. The source activity must be a predecessor of the owning
// activity; the designer validates that lazily.
type FieldSource struct {
	ActivityID string `json:"source_activity_id" validate:"required"`
	FieldName  string `json:"source_field_name"  validate:"required"`
}

// FieldDefinition describes one form field owned by an activity. Name is the
// technical identifier (lowercase [a-z0-9_], unique per activity); OrderIndex
// is contiguous 0..n-1 within the activity.
type FieldDefinition struct {
	ID         string    `json:"id"          validate:"required"`
	ActivityID string    `json:"activity_id" validate:"required"`
	Name       string    `json:"name"        validate:"required,lowercase"`
	Label      string    `json:"label"       validate:"required"`
	Type       FieldType `json:"type"        validate:"required,oneof=text textarea number currency date select boolean email phone lookup provider"`
	Required   bool      `json:"required"`
	OrderIndex int       `json:"order_index"`

	Options             []string     `json:"options,omitempty"`
	Min                 *float64     `json:"min,omitempty"`
	Max                 *float64     `json:"max,omitempty"`
	Pattern             string       `json:"pattern,omitempty"`
	Source              *FieldSource `json:"source,omitempty"`
	VisibilityCondition string       `json:"visibility_condition,omitempty"`
}
