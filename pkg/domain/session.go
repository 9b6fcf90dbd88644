package domain

import "time"

// SessionStatus is the runtime's view of a conversation.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
)

// Session mirrors a chatbot_sessions row. It is written by the external runtime
// and only read here.
type Session struct {
	ID           string        `json:"id"`
	ChatbotID    string        `json:"chatbot_id"`
	ContactPhone string        `json:"contact_phone"`
	CurrentStep  string        `json:"current_step"`
	Attempts     int           `json:"attempts"`
	Status       SessionStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// LogDirection tells whether a message came from the contact or the bot.
type LogDirection string

const (
	DirectionInbound  LogDirection = "inbound"
	DirectionOutbound LogDirection = "outbound"
)

// SessionLog mirrors a chatbot_session_logs row.
type SessionLog struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	StepID    string       `json:"step_id"`
	Direction LogDirection `json:"direction"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}
