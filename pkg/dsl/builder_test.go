package dsl

import (
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	doc := New().
		Version("1.0").
		Add("hello").Greeting("Olá!").Go("menu").Done().
		Add("menu").Menu("Escolha:").
		Option("Preços", "prices").
		Option("Sair", "bye").
		Done().
		Add("prices").End("R$ 10").Done().
		Add("bye").End("Tchau").Done().
		Build()

	if doc.StartStep != "hello" {
		t.Errorf("Expected start step 'hello' (first added), got '%s'", doc.StartStep)
	}
	if doc.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", doc.Version)
	}
	if len(doc.Steps) != 4 {
		t.Fatalf("Expected 4 steps, got %d", len(doc.Steps))
	}

	hello := doc.Steps["hello"]
	if hello.Type != domain.StepTypeGreeting || hello.Next != "menu" {
		t.Errorf("Unexpected greeting step: %+v", hello)
	}

	menu := doc.Steps["menu"]
	if len(menu.Options) != 2 {
		t.Fatalf("Expected 2 options, got %d", len(menu.Options))
	}
	if menu.Options[0].ID != 1 || menu.Options[1].ID != 2 {
		t.Errorf("Expected positional ids 1,2, got %d,%d", menu.Options[0].ID, menu.Options[1].ID)
	}
	if menu.Options[1].Next != "bye" {
		t.Errorf("Expected option 2 to point at 'bye', got '%s'", menu.Options[1].Next)
	}

	if !doc.Steps["bye"].IsTerminal() {
		t.Error("Expected 'bye' to be terminal")
	}
}

func TestBuilder_ExplicitStartAndExtras(t *testing.T) {
	b := New().Start("b")
	b.Add("a").End("A").Set("delay_ms", 500)
	b.Add("b").Greeting("B").Go("a")

	doc := b.Build()

	if doc.StartStep != "b" {
		t.Errorf("Expected explicit start 'b', got '%s'", doc.StartStep)
	}
	if doc.Steps["a"].Extra["delay_ms"] != 500 {
		t.Errorf("Expected extra field to be kept, got %v", doc.Steps["a"].Extra)
	}
}

func TestBuilder_AddReturnsExistingStep(t *testing.T) {
	b := New()
	first := b.Add("x").Menu("m").Option("one", "y")
	again := b.Add("x").Option("two", "z")

	if first != again {
		t.Fatal("Expected Add to return the same builder for an existing id")
	}
	if got := len(b.Build().Steps["x"].Options); got != 2 {
		t.Errorf("Expected 2 options after re-adding, got %d", got)
	}
}
