package domain

import "errors"

// ErrMalformedDocument is returned when operator-supplied text cannot be parsed
// into a structured value at all.
var ErrMalformedDocument = errors.New("document is not well-formed text")

// ErrInvalidDocument is returned when a parsed value fails the structural checks
// (missing start step, dangling reference, unknown step type).
var ErrInvalidDocument = errors.New("document is structurally invalid")

// ErrChatbotNotFound is returned when a chatbot id cannot be found in the store.
var ErrChatbotNotFound = errors.New("chatbot not found")

// ErrSessionNotFound is returned when a conversation session id is unknown.
var ErrSessionNotFound = errors.New("session not found")
