package shared

// FieldError is a domain validation failure tied to a single input field.
// Instances are comparable with errors.Is.
type FieldError struct {
	Field   string
	Message string
}

// NewFieldError creates a field error
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func (e *FieldError) Error() string {
	return e.Message
}

// FieldName returns the offending field
func (e *FieldError) FieldName() string {
	return e.Field
}
