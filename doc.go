/*
Package chatflow is the authoring side of a WhatsApp menu chatbot platform.

Operators describe a conversation either through a guided form (a greeting, a menu
prompt and numbered options with replies) or by editing the flow document directly.
chatflow compiles the form into a portable FlowDocument, validates documents before
they are stored, and reads the form back out of a stored document so the operator
can keep editing.

# Concept

A FlowDocument is a small graph of steps keyed by id. Three step kinds exist:
greeting (send a message and move on), menu (send a message and wait for a
numbered reply) and end (send a message and finish). The runtime that executes
documents against live conversations is a separate service; it reads the documents
this package writes.

# Key Features

  - Deterministic Builder: the same form always yields byte-identical JSON.
  - Strict Validation: malformed text and structurally invalid documents are reported
    with distinct errors, the latter with the path of the first problem.
  - Forward Compatibility: unknown fields survive a parse and re-serialize.
  - Pluggable Storage: memory, SQLite, Postgres, Redis and Loam repositories.

# Usage

	ed, err := chatflow.New("") // in-memory store
	if err != nil {
		log.Fatal(err)
	}

	bot, err := ed.Save(ctx, editor.SaveRequest{
		Name: "Atendimento",
		Form: domain.AuthoringForm{
			Options: []domain.MenuOption{{Text: "Horários", Reply: "Seg a Sex, 8h às 18h"}},
		},
	})

Raw edits go through the same Save call with Mode set to domain.EditModeRaw; the
stored record is only replaced when the text parses and validates.
*/
package chatflow
