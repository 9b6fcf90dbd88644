package domain

import "time"

// EditMode records which authoring path produced the stored document.
type EditMode string

const (
	// EditModeGuided means the document was compiled from an AuthoringForm.
	EditModeGuided EditMode = "guided"
	// EditModeRaw means the operator supplied the document text directly.
	EditModeRaw EditMode = "raw"
)

// Chatbot is the persisted record owning a FlowDocument.
// JSON names mirror the chatbots table columns.
type Chatbot struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenant_id"`
	Name            string        `json:"name"`
	CompanyName     string        `json:"company_name"`
	FlowConfig      *FlowDocument `json:"flow_config"`
	FallbackMessage string        `json:"fallback_message"`
	MaxAttempts     int           `json:"max_attempts"`
	Active          bool          `json:"is_active"`
	EditMode        EditMode      `json:"edit_mode"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
