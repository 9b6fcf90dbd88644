// Package validator confirms that a candidate FlowDocument has the shape the
// WhatsApp runtime needs before it is persisted.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/schema"
)

// ValidationError identifies the first structural problem found in a document.
// It matches domain.ErrInvalidDocument with errors.Is.
type ValidationError struct {
	Path   string // e.g. steps.main_menu.options[0].next
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", domain.ErrInvalidDocument, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", domain.ErrInvalidDocument, e.Path, e.Reason)
}

// Is reports whether target is domain.ErrInvalidDocument.
func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrInvalidDocument
}

var (
	documentSchema = schema.Schema{
		schema.Required("startStep", schema.NonEmptyString()),
		schema.Required("steps", schema.Object()),
	}

	stepSchema = schema.Schema{
		schema.Required("type", schema.OneOf(domain.StepTypeGreeting, domain.StepTypeMenu, domain.StepTypeEnd)),
		schema.Optional("message", schema.String()),
	}

	greetingSchema = schema.Schema{
		schema.Required("next", schema.NonEmptyString()),
	}

	menuSchema = schema.Schema{
		schema.Required("options", schema.List(schema.Object())),
	}

	// Option ids are numbered by the builder only; hand-edited documents may
	// omit or renumber them.
	optionSchema = schema.Schema{
		schema.Optional("text", schema.String()),
		schema.Required("next", schema.NonEmptyString()),
	}
)

// ValidateFlowDocument checks a candidate and returns it as a typed document.
//
// The candidate may be raw JSON ([]byte or string), a generic map produced by a
// decoder, or a domain.FlowDocument. Text that does not parse yields an error
// wrapping domain.ErrMalformedDocument; any other failure is a *ValidationError.
// Unknown fields are tolerated and carried into the result.
func ValidateFlowDocument(candidate any) (*domain.FlowDocument, error) {
	raw, err := normalize(candidate)
	if err != nil {
		return nil, err
	}

	obj, ok := schema.AsObject(raw)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("document must be an object, got %T", raw)}
	}

	if err := checkStructure(obj); err != nil {
		return nil, err
	}

	doc, err := domain.DecodeFlowDocument(obj)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return doc, nil
}

// normalize turns the supported candidate forms into a generic value.
func normalize(candidate any) (any, error) {
	switch v := candidate.(type) {
	case nil:
		return nil, &ValidationError{Reason: "document is required"}
	case []byte:
		return compiler.Parse(v, compiler.FormatJSON)
	case string:
		return compiler.Parse([]byte(v), compiler.FormatJSON)
	case json.RawMessage:
		return compiler.Parse(v, compiler.FormatJSON)
	case *domain.FlowDocument:
		if v == nil {
			return nil, &ValidationError{Reason: "document is required"}
		}
		return roundTrip(v)
	case domain.FlowDocument:
		return roundTrip(&v)
	default:
		return candidate, nil
	}
}

// roundTrip re-reads a typed document through its wire form so that typed and
// untyped candidates go through identical checks.
func roundTrip(doc *domain.FlowDocument) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow document: %w", err)
	}
	out, err := compiler.Parse(data, compiler.FormatJSON)
	if err != nil {
		// A marshalled document always parses; keep the invariant visible if it breaks.
		return nil, errors.Join(errors.New("typed document did not round-trip"), err)
	}
	return out, nil
}

func checkStructure(doc map[string]any) error {
	if fe := documentSchema.Check(doc); fe != nil {
		return fieldError("", fe)
	}

	start := doc["startStep"].(string)
	steps, _ := schema.AsObject(doc["steps"])
	if len(steps) == 0 {
		return &ValidationError{Path: "steps", Reason: "must contain at least one step"}
	}
	if _, ok := steps[start]; !ok {
		return &ValidationError{Path: "startStep", Reason: fmt.Sprintf("references unknown step %q", start)}
	}

	ids := make([]string, 0, len(steps))
	for id := range steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := checkStep(id, steps[id], steps); err != nil {
			return err
		}
	}
	return nil
}

func checkStep(id string, value any, steps map[string]any) error {
	path := "steps." + id

	step, ok := schema.AsObject(value)
	if !ok {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("step must be an object, got %T", value)}
	}
	if fe := stepSchema.Check(step); fe != nil {
		return fieldError(path, fe)
	}

	switch step["type"].(string) {
	case domain.StepTypeGreeting:
		if fe := greetingSchema.Check(step); fe != nil {
			return fieldError(path, fe)
		}
		return checkReference(path+".next", step["next"].(string), steps)

	case domain.StepTypeMenu:
		if fe := menuSchema.Check(step); fe != nil {
			return fieldError(path, fe)
		}
		options, _ := schema.AsList(step["options"])
		for i, o := range options {
			optPath := fmt.Sprintf("%s.options[%d]", path, i)
			opt, _ := schema.AsObject(o)
			if fe := optionSchema.Check(opt); fe != nil {
				return fieldError(optPath, fe)
			}
			if err := checkReference(optPath+".next", opt["next"].(string), steps); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkReference(path, target string, steps map[string]any) error {
	if _, ok := steps[target]; !ok {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("references unknown step %q", target)}
	}
	return nil
}

func fieldError(prefix string, fe *schema.FieldError) *ValidationError {
	path := fe.Key
	if prefix != "" {
		path = prefix + "." + fe.Key
	}
	return &ValidationError{Path: path, Reason: fe.Reason}
}
