package schema

// Field binds a key to its expected type.
type Field struct {
	Key      string
	Type     Type
	Required bool
}

// Schema is an ordered list of field checks.
type Schema []Field

// Required declares a field that must be present.
func Required(key string, t Type) Field {
	return Field{Key: key, Type: t, Required: true}
}

// Optional declares a field that is checked only when present.
func Optional(key string, t Type) Field {
	return Field{Key: key, Type: t}
}

// Check validates data against the schema and returns the first failure in
// declaration order, or nil.
func (s Schema) Check(data map[string]any) *FieldError {
	for _, f := range s {
		value, exists := data[f.Key]
		if !exists {
			if f.Required {
				return &FieldError{Key: f.Key, Reason: "required"}
			}
			continue
		}
		if err := f.Type.Validate(value); err != nil {
			return &FieldError{Key: f.Key, Reason: err.Error(), Value: value}
		}
	}
	return nil
}
