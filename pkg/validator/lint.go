package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Lint reports non-blocking problems in a structurally valid document.
// Currently it flags steps that cannot be reached from the start step.
func Lint(doc *domain.FlowDocument) []string {
	if doc == nil {
		return nil
	}

	reached := Reachable(doc)

	var warnings []string
	for id := range doc.Steps {
		if !reached[id] {
			warnings = append(warnings, fmt.Sprintf("step %q is unreachable from %q", id, doc.StartStep))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// Reachable returns the set of step ids reachable from the start step.
func Reachable(doc *domain.FlowDocument) map[string]bool {
	visited := make(map[string]bool)
	if doc == nil {
		return visited
	}

	queue := []string{doc.StartStep}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		step, ok := doc.Step(current)
		if !ok {
			continue
		}
		visited[current] = true

		for _, target := range step.Targets() {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	return visited
}
