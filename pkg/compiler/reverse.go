package compiler

import (
	"encoding/json"
	"strconv"

	"github.com/aretw0/chatflow/pkg/domain"
)

// DeriveMenuOptionsFromFlow recovers the guided form's option rows from a document.
//
// It reads the main_menu step by its fixed id and, for each option, takes the reply
// from the message of the step the option points to. Anything it cannot find yields
// an empty slice or an empty reply; it never fails. Documents that do not follow the
// builder's naming degrade silently to a partial or empty list.
func DeriveMenuOptionsFromFlow(doc *domain.FlowDocument) []domain.MenuOption {
	out := []domain.MenuOption{}

	menu, ok := doc.Step(domain.StepMainMenu)
	if !ok {
		return out
	}

	for i, opt := range menu.Options {
		reply := ""
		if target, ok := doc.Step(opt.Next); ok {
			reply = target.Message
		}

		id := opt.ID
		if id == 0 {
			id = i + 1
		}

		out = append(out, domain.MenuOption{
			ID:    strconv.Itoa(id),
			Text:  opt.Text,
			Reply: reply,
		})
	}

	return out
}

// DeriveMenuOptionsFromJSON is DeriveMenuOptionsFromFlow over stored JSON.
// Unparseable input yields an empty slice.
func DeriveMenuOptionsFromJSON(data []byte) []domain.MenuOption {
	if len(data) == 0 {
		return []domain.MenuOption{}
	}
	var doc domain.FlowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return []domain.MenuOption{}
	}
	return DeriveMenuOptionsFromFlow(&doc)
}

// DeriveForm rebuilds a fresh AuthoringForm for editing an existing record.
// Greeting and menu texts are read back when the builder's step ids are present;
// the fallback settings come from the record's sibling fields.
func DeriveForm(bot *domain.Chatbot) domain.AuthoringForm {
	form := domain.AuthoringForm{
		Options: []domain.MenuOption{},
	}
	if bot == nil {
		return form
	}

	form.FallbackMessage = bot.FallbackMessage
	form.MaxAttempts = bot.MaxAttempts

	doc := bot.FlowConfig
	if greeting, ok := doc.Step(domain.StepGreeting); ok {
		form.GreetingMessage = greeting.Message
	}
	if menu, ok := doc.Step(domain.StepMainMenu); ok {
		form.MenuMessage = menu.Message
	}
	form.Options = DeriveMenuOptionsFromFlow(doc)

	return form
}

// DeriveMenuOptionsFromText parses document text in the given format and derives
// its options. Text that does not parse to an object yields an empty slice.
func DeriveMenuOptionsFromText(data []byte, format Format) []domain.MenuOption {
	parsed, err := Parse(data, format)
	if err != nil {
		return []domain.MenuOption{}
	}
	raw, ok := parsed.(map[string]any)
	if !ok {
		return []domain.MenuOption{}
	}
	doc, err := domain.DecodeFlowDocument(raw)
	if err != nil {
		return []domain.MenuOption{}
	}
	return DeriveMenuOptionsFromFlow(doc)
}
