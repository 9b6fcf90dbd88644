package schema

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestStringType(t *testing.T) {
	tests := []struct {
		typ     Type
		value   any
		wantErr bool
	}{
		{String(), "hello", false},
		{String(), "", false},
		{String(), 42, true},
		{String(), nil, true},
		{NonEmptyString(), "x", false},
		{NonEmptyString(), "   ", true},
		{NonEmptyString(), "", true},
	}

	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.typ.Name(), tt.value, err, tt.wantErr)
		}
	}
}

func TestIntType(t *testing.T) {
	typ := Int()

	if typ.Name() != "int" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "int")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{42, false},
		{int64(42), false},
		{float64(42), false},
		{float64(42.5), true},
		{json.Number("7"), false},
		{json.Number("7.5"), true},
		{"42", true},
		{true, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestListAndObjectTypes(t *testing.T) {
	objects := List(Object())

	tests := []struct {
		value   any
		wantErr bool
		desc    string
	}{
		{[]any{map[string]any{"a": 1}}, false, "list of objects"},
		{[]any{}, false, "empty list"},
		{[]any{"x"}, true, "list of strings"},
		{map[string]any{}, true, "object instead of list"},
		{nil, true, "nil"},
		{[]any{map[any]any{"a": 1}}, false, "yaml style map"},
	}

	for _, tt := range tests {
		err := objects.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate(%v) error = %v, wantErr %v", tt.desc, tt.value, err, tt.wantErr)
		}
	}
}

func TestOneOf(t *testing.T) {
	kinds := OneOf("greeting", "menu", "end")

	if err := kinds.Validate("menu"); err != nil {
		t.Errorf("Validate(menu) error = %v", err)
	}
	if err := kinds.Validate("question"); err == nil {
		t.Error("Validate(question) should fail")
	}
	if err := kinds.Validate(3); err == nil {
		t.Error("Validate(3) should fail")
	}
}

func TestCustomType(t *testing.T) {
	positive := Custom("positive", func(v any) error {
		i, ok := AsInt(v)
		if !ok || i <= 0 {
			return fmt.Errorf("must be a positive integer")
		}
		return nil
	})

	if positive.Name() != "positive" {
		t.Errorf("Name() = %q, want %q", positive.Name(), "positive")
	}
	if err := positive.Validate(3); err != nil {
		t.Errorf("Validate(3) error = %v", err)
	}
	if err := positive.Validate(0); err == nil {
		t.Error("Validate(0) should fail")
	}
}

func TestSchemaCheck_FirstFailureInOrder(t *testing.T) {
	s := Schema{
		Required("type", String()),
		Optional("message", String()),
		Required("next", NonEmptyString()),
	}

	if err := s.Check(map[string]any{"type": "greeting", "next": "menu", "extra": 1}); err != nil {
		t.Fatalf("Check() error = %v, want nil", err)
	}

	err := s.Check(map[string]any{"message": 5})
	if err == nil {
		t.Fatal("Check() should fail")
	}
	if err.Key != "type" || err.Reason != "required" {
		t.Errorf("Check() = %v, want missing type first", err)
	}

	err = s.Check(map[string]any{"type": "greeting", "message": 5})
	if err == nil || err.Key != "message" {
		t.Errorf("Check() = %v, want message failure", err)
	}
}

func TestFieldError_Message(t *testing.T) {
	err := &FieldError{Key: "next", Reason: "required"}
	if err.Error() != `field "next": required` {
		t.Errorf("Error() = %q", err.Error())
	}

	err = &FieldError{Key: "id", Reason: "expected int", Value: "x"}
	if err.Error() != `field "id": expected int (got string)` {
		t.Errorf("Error() = %q", err.Error())
	}
}
