package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"

	"github.com/mitchellh/mapstructure"
)

// DecodeFlowDocument converts a generic structured value (as produced by a JSON or
// YAML decoder) into a typed FlowDocument. Unknown fields land in the Extra side-bags.
// Fields absent from raw stay absent when the document is marshalled again.
// It performs no structural validation.
func DecodeFlowDocument(raw map[string]any) (*FlowDocument, error) {
	var doc FlowDocument
	if err := decode(prepareDocument(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode flow document: %w", err)
	}
	annotateDocument(&doc, raw)
	return &doc, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func decodeJSON(data []byte) (map[string]any, error) {
	var raw map[string]any
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	if err := d.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// prepareDocument copies raw without the values the typed fields cannot hold.
// annotateDocument restores them afterwards.
func prepareDocument(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := maps.Clone(raw)
	if v, ok := raw["version"]; ok {
		if _, isString := v.(string); !isString {
			delete(out, "version")
		}
	}
	if steps, ok := raw["steps"].(map[string]any); ok {
		prepared := make(map[string]any, len(steps))
		for id, v := range steps {
			if step, ok := v.(map[string]any); ok {
				prepared[id] = prepareStep(step)
			} else {
				prepared[id] = v
			}
		}
		out["steps"] = prepared
	}
	return out
}

func prepareStep(raw map[string]any) map[string]any {
	out := maps.Clone(raw)
	options, ok := raw["options"].([]any)
	if !ok {
		return out
	}
	prepared := make([]any, len(options))
	for i, v := range options {
		if opt, ok := v.(map[string]any); ok {
			prepared[i] = prepareOption(opt)
		} else {
			prepared[i] = v
		}
	}
	out["options"] = prepared
	return out
}

func prepareOption(raw map[string]any) map[string]any {
	out := maps.Clone(raw)
	if id, ok := raw["id"]; ok && !isIntegral(id) {
		delete(out, "id")
	}
	return out
}

func annotateDocument(doc *FlowDocument, raw map[string]any) {
	if raw == nil {
		return
	}
	if v, ok := raw["version"]; !ok {
		doc.versionAbsent = true
	} else if _, isString := v.(string); !isString {
		doc.rawVersion = v
	}

	steps, _ := raw["steps"].(map[string]any)
	for id, step := range doc.Steps {
		if rawStep, ok := steps[id].(map[string]any); ok {
			annotateStep(&step, rawStep)
			doc.Steps[id] = step
		}
	}
}

func annotateStep(step *Step, raw map[string]any) {
	if _, ok := raw["message"]; !ok {
		step.messageAbsent = true
	}
	options, _ := raw["options"].([]any)
	for i := range step.Options {
		if i >= len(options) {
			break
		}
		if opt, ok := options[i].(map[string]any); ok {
			annotateOption(&step.Options[i], opt)
		}
	}
}

func annotateOption(opt *Option, raw map[string]any) {
	if id, ok := raw["id"]; !ok {
		opt.idAbsent = true
	} else if !isIntegral(id) {
		opt.rawID = id
	}
	if _, ok := raw["text"]; !ok {
		opt.textAbsent = true
	}
}

func isIntegral(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case float32:
		f := float64(n)
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	default:
		return false
	}
}

// MarshalJSON merges the side-bag with the modeled fields. Modeled fields win.
func (d FlowDocument) MarshalJSON() ([]byte, error) {
	out := withExtra(d.Extra, 3)
	switch {
	case d.Version != "":
		out["version"] = d.Version
	case d.rawVersion != nil:
		out["version"] = d.rawVersion
	case !d.versionAbsent:
		out["version"] = ""
	default:
		delete(out, "version")
	}
	out["startStep"] = d.StartStep
	steps := d.Steps
	if steps == nil {
		steps = map[string]Step{}
	}
	out["steps"] = steps
	return json.Marshal(out)
}

// UnmarshalJSON decodes a document, keeping unknown fields.
func (d *FlowDocument) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSON(data)
	if err != nil {
		return err
	}
	doc, err := DecodeFlowDocument(raw)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// MarshalJSON emits the step with its extra fields preserved.
func (s Step) MarshalJSON() ([]byte, error) {
	out := withExtra(s.Extra, 4)
	out["type"] = s.Type
	if s.Message != "" || !s.messageAbsent {
		out["message"] = s.Message
	} else {
		delete(out, "message")
	}
	if s.Next != "" {
		out["next"] = s.Next
	}
	if s.Options != nil {
		out["options"] = s.Options
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a step, keeping unknown fields.
func (s *Step) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSON(data)
	if err != nil {
		return err
	}
	var step Step
	if err := decode(prepareStep(raw), &step); err != nil {
		return err
	}
	annotateStep(&step, raw)
	*s = step
	return nil
}

// MarshalJSON emits the option with its extra fields preserved.
func (o Option) MarshalJSON() ([]byte, error) {
	out := withExtra(o.Extra, 3)
	switch {
	case o.ID != 0:
		out["id"] = o.ID
	case o.rawID != nil:
		out["id"] = o.rawID
	case !o.idAbsent:
		out["id"] = 0
	default:
		delete(out, "id")
	}
	if o.Text != "" || !o.textAbsent {
		out["text"] = o.Text
	} else {
		delete(out, "text")
	}
	out["next"] = o.Next
	return json.Marshal(out)
}

// UnmarshalJSON decodes an option, keeping unknown fields.
func (o *Option) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSON(data)
	if err != nil {
		return err
	}
	var opt Option
	if err := decode(prepareOption(raw), &opt); err != nil {
		return err
	}
	annotateOption(&opt, raw)
	*o = opt
	return nil
}

func withExtra(extra map[string]any, known int) map[string]any {
	out := make(map[string]any, len(extra)+known)
	for k, v := range extra {
		out[k] = v
	}
	return out
}
