package testutils

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	if len(opts) == 0 {
		opts = []loam.Option{loam.WithVersioning(false)}
	}
	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SampleForm returns a guided form with two options, one of them with a blank reply.
func SampleForm() domain.AuthoringForm {
	return domain.AuthoringForm{
		GreetingMessage: "Olá! Bem-vindo à Pizzaria.",
		MenuMessage:     "Escolha uma opção:",
		Options: []domain.MenuOption{
			{ID: "row-1", Text: "Cardápio", Reply: "Veja nosso cardápio em pizzaria.example"},
			{ID: "row-2", Text: "Horários", Reply: ""},
		},
	}
}

// SampleRawFlow is a hand-written multi-level document with fields the builder never emits.
const SampleRawFlow = `{
  "version": "1.0",
  "startStep": "greeting",
  "channel": "whatsapp",
  "steps": {
    "greeting": {"type": "greeting", "message": "Oi!", "next": "main_menu"},
    "main_menu": {"type": "menu", "message": "Menu", "options": [
      {"id": 1, "text": "Planos", "next": "plans"},
      {"id": 2, "text": "Sair", "next": "goodbye"}
    ]},
    "plans": {"type": "menu", "message": "Qual plano?", "timeoutSeconds": 120, "options": [
      {"id": 1, "text": "Básico", "next": "goodbye"},
      {"id": 9, "text": "Voltar", "next": "main_menu", "hidden": true}
    ]},
    "goodbye": {"type": "end", "message": "Até logo, {{company_name}}!"}
  }
}`
