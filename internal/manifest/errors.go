package manifest

import "fmt"

// SchemaError reports a manifest that is missing or misusing a required
// field. It gates loading of the single offending pack; callers listing many
// packs skip the bad one rather than failing the whole listing.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("manifest schema: %s", e.Reason)
	}
	return fmt.Sprintf("manifest schema: %s: %s", e.Field, e.Reason)
}

func schemaErrorf(field, format string, args ...any) *SchemaError {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
