package domain

// MenuOption is one row of the guided builder form.
// ID is form-local and unrelated to the numeric Option.ID of the document.
type MenuOption struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Reply string `json:"reply" yaml:"reply"`
}

// AuthoringForm is the transient view an operator edits in guided mode.
// It is never persisted; the FlowDocument derived from it is.
type AuthoringForm struct {
	GreetingMessage string       `json:"greetingMessage" yaml:"greetingMessage"`
	MenuMessage     string       `json:"menuMessage" yaml:"menuMessage"`
	Options         []MenuOption `json:"options,omitempty" yaml:"options,omitempty"`

	// Stored beside the document; they govern runtime behavior on unmatched replies.
	FallbackMessage string `json:"fallbackMessage" yaml:"fallbackMessage"`
	MaxAttempts     int    `json:"maxAttempts" yaml:"maxAttempts"`
}
