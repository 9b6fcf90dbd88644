package dsl

import "github.com/aretw0/chatflow/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Greeting marks the step as an auto-advancing greeting.
func (s *StepBuilder) Greeting(message string) *StepBuilder {
	s.step.Type = domain.StepTypeGreeting
	s.step.Message = message
	return s
}

// Menu marks the step as a menu awaiting a numbered reply.
func (s *StepBuilder) Menu(message string) *StepBuilder {
	s.step.Type = domain.StepTypeMenu
	s.step.Message = message
	return s
}

// End marks the step as terminal.
func (s *StepBuilder) End(message string) *StepBuilder {
	s.step.Type = domain.StepTypeEnd
	s.step.Message = message
	s.step.Next = ""
	s.step.Options = nil
	return s
}

// Go sets the unconditional next step of a greeting.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.step.Next = target
	return s
}

// Option appends a menu option. Its numeric id is its 1-based position.
func (s *StepBuilder) Option(text, target string) *StepBuilder {
	s.step.Options = append(s.step.Options, domain.Option{
		ID:   len(s.step.Options) + 1,
		Text: text,
		Next: target,
	})
	return s
}

// Set stores an extra field the runtime may understand but this package does not model.
func (s *StepBuilder) Set(key string, value any) *StepBuilder {
	if s.step.Extra == nil {
		s.step.Extra = make(map[string]any)
	}
	s.step.Extra[key] = value
	return s
}

// Done returns to the parent builder to continue chaining.
func (s *StepBuilder) Done() *Builder {
	return s.builder
}

// Build returns the underlying domain.Step.
func (s *StepBuilder) Build() domain.Step {
	step := s.step
	if step.Options != nil {
		step.Options = append([]domain.Option(nil), step.Options...)
	}
	return step
}
