package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/dsl"
)

// BuildFlowFromMenu compiles an AuthoringForm into a FlowDocument.
//
// It never fails: blank fields are replaced by fixed defaults and options whose
// label is still empty after sanitizing are dropped. The result depends only on
// the form, so equal forms produce equal documents.
func BuildFlowFromMenu(form domain.AuthoringForm) *domain.FlowDocument {
	greeting := orDefault(form.GreetingMessage, domain.DefaultGreetingMessage)
	menuMessage := orDefault(form.MenuMessage, domain.DefaultMenuMessage)

	options := sanitizeOptions(form.Options)

	b := dsl.New().
		Version(domain.FlowVersion).
		Start(domain.StepGreeting)

	b.Add(domain.StepGreeting).
		Greeting(greeting).
		Go(domain.StepMainMenu)

	menu := b.Add(domain.StepMainMenu).Menu(menuMessage)
	for i, opt := range options {
		replyID := ReplyStepID(i + 1)
		menu.Option(opt.Text, replyID)

		b.Add(replyID).
			Menu(opt.Reply).
			Option(domain.BackToMenuText, domain.StepMainMenu).
			Option(domain.EndConversationText, domain.StepGoodbye)
	}

	b.Add(domain.StepGoodbye).End(domain.DefaultGoodbyeMessage)

	return b.Build()
}

// ReplyStepID returns the id of the reply step spawned by the nth menu option.
func ReplyStepID(n int) string {
	return fmt.Sprintf("%s%d", domain.ReplyStepPrefix, n)
}

// sanitizeOptions applies per-option defaults. Placeholders use the position in
// the input list, while surviving options are renumbered by the caller.
func sanitizeOptions(in []domain.MenuOption) []domain.MenuOption {
	out := make([]domain.MenuOption, 0, len(in))
	for i, opt := range in {
		text := orDefault(opt.Text, fmt.Sprintf(domain.OptionPlaceholderFormat, i+1))
		reply := orDefault(opt.Reply, domain.DefaultReplyMessage)
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, domain.MenuOption{ID: opt.ID, Text: text, Reply: reply})
	}
	return out
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
