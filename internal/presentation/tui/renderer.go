package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// When stdout is not a terminal the markdown is returned unchanged.
func NewRenderer() func(string) (string, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// FlowMarkdown describes a FlowDocument as the contact would experience it,
// one section per step starting from the start step.
// The company placeholder is replaced when companyName is set.
func FlowMarkdown(doc *domain.FlowDocument, companyName string) string {
	var sb strings.Builder
	if doc == nil {
		return "_empty flow_\n"
	}

	for _, id := range stepOrder(doc) {
		step := doc.Steps[id]
		fmt.Fprintf(&sb, "## `%s` (%s)\n\n", id, step.Type)

		msg := step.Message
		if companyName != "" {
			msg = strings.ReplaceAll(msg, domain.CompanyNamePlaceholder, companyName)
		}
		for _, line := range strings.Split(msg, "\n") {
			fmt.Fprintf(&sb, "> %s\n", line)
		}
		sb.WriteString("\n")

		switch step.Type {
		case domain.StepTypeGreeting:
			fmt.Fprintf(&sb, "➡️ `%s`\n\n", step.Next)
		case domain.StepTypeMenu:
			for _, opt := range step.Options {
				fmt.Fprintf(&sb, "%d. %s → `%s`\n", opt.ID, opt.Text, opt.Next)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// stepOrder walks the document breadth-first from the start step, then appends
// any unreachable steps so nothing is hidden from the preview.
func stepOrder(doc *domain.FlowDocument) []string {
	seen := map[string]bool{}
	var order []string

	queue := []string{doc.StartStep}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		step, ok := doc.Step(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		queue = append(queue, step.Targets()...)
	}

	var rest []string
	for id := range doc.Steps {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
