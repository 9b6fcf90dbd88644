package domain

import (
	"reflect"
	"sort"
)

// FlowDiff represents the changes between two revisions of a FlowDocument.
// It travels with the saved event so observers can tell what an edit touched.
type FlowDiff struct {
	// StartStep is set when the entry step moved.
	StartStep *string `json:"start_step,omitempty"`

	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// DiffFlows calculates the difference between oldDoc and newDoc.
// A nil oldDoc yields every step of newDoc as added. Step ids are sorted.
// It returns nil when nothing changed.
func DiffFlows(oldDoc, newDoc *FlowDocument) *FlowDiff {
	if newDoc == nil {
		return nil
	}

	diff := &FlowDiff{}
	if oldDoc == nil || oldDoc.StartStep != newDoc.StartStep {
		start := newDoc.StartStep
		diff.StartStep = &start
	}

	var oldSteps map[string]Step
	if oldDoc != nil {
		oldSteps = oldDoc.Steps
	}

	for id, step := range newDoc.Steps {
		prev, exists := oldSteps[id]
		switch {
		case !exists:
			diff.Added = append(diff.Added, id)
		case !reflect.DeepEqual(prev, step):
			diff.Changed = append(diff.Changed, id)
		}
	}
	for id := range oldSteps {
		if _, exists := newDoc.Steps[id]; !exists {
			diff.Removed = append(diff.Removed, id)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
// It is safe to call on a nil diff.
func (d *FlowDiff) IsEmpty() bool {
	return d == nil || (d.StartStep == nil &&
		len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0)
}
