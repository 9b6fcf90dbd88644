package dsl

import (
	"github.com/aretw0/chatflow/pkg/domain"
)

// Builder manages the document construction.
type Builder struct {
	version string
	start   string
	steps   map[string]*StepBuilder
	order   []string
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{
		steps: make(map[string]*StepBuilder),
	}
}

// Version sets the informational version tag.
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// Start sets the step where conversations begin.
// If never called, the first added step is used.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// Add creates a new step in the document.
// If the step already exists, it returns the existing builder.
func (b *Builder) Add(id string) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		builder: b,
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build compiles the steps into a FlowDocument.
// The builder performs no validation; run the document through the validator
// when the input is not trusted.
func (b *Builder) Build() *domain.FlowDocument {
	start := b.start
	if start == "" && len(b.order) > 0 {
		start = b.order[0]
	}

	steps := make(map[string]domain.Step, len(b.steps))
	for id, sb := range b.steps {
		steps[id] = sb.Build()
	}

	return &domain.FlowDocument{
		Version:   b.version,
		StartStep: start,
		Steps:     steps,
	}
}
