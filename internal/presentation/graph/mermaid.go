package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces a Mermaid flowchart for a FlowDocument.
// The start step is emitted first, then the rest in id order. Shapes:
// - Start: ((Circle))
// - Menu (waits for a reply): [/Parallelogram/]
// - End: ([Stadium])
// - Greeting: [Rectangle]
// Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(doc *domain.FlowDocument, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if doc == nil {
		return sb.String()
	}

	for _, id := range orderedIDs(doc) {
		step := doc.Steps[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == doc.StartStep:
			opener, closer = "((", "))"
		case step.Type == domain.StepTypeMenu:
			opener, closer = "[/", "/]"
		case step.Type == domain.StepTypeEnd:
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escape(id), closer))

		switch step.Type {
		case domain.StepTypeGreeting:
			if step.Next != "" {
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(step.Next)))
			}
		case domain.StepTypeMenu:
			for _, opt := range step.Options {
				label := escape(fmt.Sprintf("%d. %s", opt.ID, opt.Text))
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(opt.Next)))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			if _, ok := doc.Steps[id]; !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

// OverlayFromLogs marks every step a session passed through.
func OverlayFromLogs(session domain.Session, logs []domain.SessionLog) *GraphOverlay {
	overlay := &GraphOverlay{CurrentStep: session.CurrentStep}
	for _, l := range logs {
		if l.StepID != "" {
			overlay.VisitedSteps = append(overlay.VisitedSteps, l.StepID)
		}
	}
	return overlay
}

func orderedIDs(doc *domain.FlowDocument) []string {
	ids := make([]string, 0, len(doc.Steps))
	for id := range doc.Steps {
		if id != doc.StartStep {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if _, ok := doc.Steps[doc.StartStep]; ok {
		ids = append([]string{doc.StartStep}, ids...)
	}
	return ids
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
