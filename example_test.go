package chatflow_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/aretw0/chatflow/pkg/validator"
)

func ExampleBuildFlowFromMenu() {
	doc := chatflow.BuildFlowFromMenu(domain.AuthoringForm{
		Options: []domain.MenuOption{
			{Text: "Horários", Reply: "Seg a Sex, 8h às 18h"},
			{Text: "Endereço"},
		},
	})

	ids := make([]string, 0, len(doc.Steps))
	for id := range doc.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println(doc.StartStep)
	fmt.Println(ids)
	for _, opt := range doc.Steps[domain.StepMainMenu].Options {
		fmt.Printf("%d %s -> %s\n", opt.ID, opt.Text, opt.Next)
	}
	// Output:
	// greeting
	// [goodbye greeting main_menu opt_1 opt_2]
	// 1 Horários -> opt_1
	// 2 Endereço -> opt_2
}

func ExampleValidateFlowDocument() {
	_, err := chatflow.ValidateFlowDocument(`{
		"startStep": "main_menu",
		"steps": {
			"main_menu": {"type": "menu", "message": "Escolha", "options": [{"id": 1, "text": "A", "next": "nowhere"}]}
		}
	}`)

	var verr *validator.ValidationError
	fmt.Println(errors.Is(err, domain.ErrInvalidDocument))
	fmt.Println(errors.As(err, &verr) && verr.Path == "steps.main_menu.options[0].next")

	_, err = chatflow.ValidateFlowDocument(`{"startStep": `)
	fmt.Println(errors.Is(err, domain.ErrMalformedDocument))
	// Output:
	// true
	// true
	// true
}

func ExampleNew_memory() {
	ed, err := chatflow.New("")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	bot, err := ed.Save(ctx, editor.SaveRequest{
		ChatbotID: "bot-1",
		Name:      "Atendimento",
		Form: domain.AuthoringForm{
			Options: []domain.MenuOption{{Text: "Falar com atendente", Reply: "Aguarde um momento."}},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	session, err := ed.Open(ctx, bot.ID)
	if err != nil {
		log.Fatal(err)
	}
	for _, opt := range session.Form.Options {
		fmt.Printf("%s. %s: %s\n", opt.ID, opt.Text, opt.Reply)
	}
	fmt.Println(bot.MaxAttempts, bot.EditMode)
	// Output:
	// 1. Falar com atendente: Aguarde um momento.
	// 3 guided
}
