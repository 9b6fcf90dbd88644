package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFlowSaved      EventType = "flow_saved"
	EventFlowRejected   EventType = "flow_rejected"
	EventChatbotDeleted EventType = "chatbot_deleted"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// FlowEvent describes the outcome of one save or delete.
type FlowEvent struct {
	EventBase
	ChatbotID string    `json:"chatbot_id"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Mode      EditMode  `json:"mode,omitempty"`
	Steps     int       `json:"steps,omitempty"`
	Diff      *FlowDiff `json:"diff,omitempty"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnSaved    func(context.Context, *FlowEvent)
	OnRejected func(context.Context, *FlowEvent)
	OnDeleted  func(context.Context, *FlowEvent)
}
