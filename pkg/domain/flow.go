package domain

// StepType constants define how the runtime treats a step.
const (
	// StepTypeGreeting sends its message and advances unconditionally to Next.
	StepTypeGreeting = "greeting"
	// StepTypeMenu sends its message and waits for a reply matching one Option ID.
	StepTypeMenu = "menu"
	// StepTypeEnd sends its message and terminates the conversation.
	StepTypeEnd = "end"
)

// FlowDocument is the portable step graph interpreted by the WhatsApp runtime.
// It is stored as the flow_config attribute of a chatbot record.
type FlowDocument struct {
	Version   string          `json:"version" mapstructure:"version"`
	StartStep string          `json:"startStep" mapstructure:"startStep"`
	Steps     map[string]Step `json:"steps" mapstructure:"steps"`

	// Extra holds document-level fields this package does not model.
	Extra map[string]any `json:"-" mapstructure:",remain"`

	// rawVersion keeps a version that was absent or not a string on input.
	versionAbsent bool
	rawVersion    any
}

// Step is one node of a FlowDocument, tagged by Type.
type Step struct {
	Type    string   `json:"type" mapstructure:"type"`
	Message string   `json:"message,omitempty" mapstructure:"message"`
	Next    string   `json:"next,omitempty" mapstructure:"next"`
	Options []Option `json:"options,omitempty" mapstructure:"options"`

	// Extra preserves unknown step fields verbatim (forward compatibility
	// with a richer runtime).
	Extra map[string]any `json:"-" mapstructure:",remain"`

	messageAbsent bool
}

// Option is a numbered transition out of a menu step.
type Option struct {
	ID   int    `json:"id" mapstructure:"id"`
	Text string `json:"text" mapstructure:"text"`
	Next string `json:"next" mapstructure:"next"`

	Extra map[string]any `json:"-" mapstructure:",remain"`

	// Hand-edited options may omit the id or use a non-integer one; rawID
	// keeps the latter so it is written back unchanged.
	idAbsent   bool
	rawID      any
	textAbsent bool
}

// Step returns the step with the given id and whether it exists.
// It is safe to call on a nil document.
func (d *FlowDocument) Step(id string) (Step, bool) {
	if d == nil || d.Steps == nil {
		return Step{}, false
	}
	s, ok := d.Steps[id]
	return s, ok
}

// IsTerminal reports whether the step ends the conversation.
func (s Step) IsTerminal() bool {
	return s.Type == StepTypeEnd
}

// Targets returns every step id this step can transition to, in presentation order.
func (s Step) Targets() []string {
	switch s.Type {
	case StepTypeGreeting:
		if s.Next == "" {
			return nil
		}
		return []string{s.Next}
	case StepTypeMenu:
		targets := make([]string, 0, len(s.Options))
		for _, opt := range s.Options {
			targets = append(targets, opt.Next)
		}
		return targets
	default:
		return nil
	}
}
