package loam

// ChatbotMetadata is the frontmatter of a chatbot document.
// The FlowDocument is kept as JSON text so its unknown fields survive the
// YAML round trip untouched. Loam hands scalar frontmatter back as text, so
// numbers and flags are kept as strings too.
type ChatbotMetadata struct {
	ID              string `json:"id" mapstructure:"id"`
	TenantID        string `json:"tenant_id" mapstructure:"tenant_id"`
	Name            string `json:"name" mapstructure:"name"`
	CompanyName     string `json:"company_name" mapstructure:"company_name"`
	FallbackMessage string `json:"fallback_message" mapstructure:"fallback_message"`
	MaxAttempts     string `json:"max_attempts" mapstructure:"max_attempts"`
	Active          string `json:"is_active" mapstructure:"is_active"`
	EditMode        string `json:"edit_mode" mapstructure:"edit_mode"`
	CreatedAt       string `json:"created_at" mapstructure:"created_at"`
	UpdatedAt       string `json:"updated_at" mapstructure:"updated_at"`
	FlowConfig      string `json:"flow_config,omitempty" mapstructure:"flow_config"`
}
