package middleware

import "github.com/aretw0/chatflow/pkg/ports"

// Middleware allows wrapping a SessionReader to add behavior.
type Middleware func(ports.SessionReader) ports.SessionReader
