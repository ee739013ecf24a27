// ABOUTME: Typed views of governor daemon responses
// ABOUTME: Health, Now, Status, sessions, messages, and chat payloads

package governor

import "encoding/json"

// BackendInfo describes the model backend behind the governor.
type BackendInfo struct {
	Type      string
	Connected bool
}

// GovernorInfo is the governor part of the hello handshake.
type GovernorInfo struct {
	ContextID   string
	Mode        string
	Initialized bool
}

// Health is the adapted governor.hello result.
type Health struct {
	Status   string // "ok" or "degraded"
	Backend  BackendInfo
	Governor GovernorInfo
}

// Now is the adapted governor.now result.
type Now struct {
	ContextID       string
	Status          string // the status pill, e.g. "OK", "WARN", "VIOLATION"
	Sentence        string
	Regime          string
	SuggestedAction string
	Mode            string
	LastEvent       json.RawMessage
}

// Status is the adapted governor.status result.
type Status struct {
	ContextID   string
	Initialized bool
	Mode        string
	Decisions   int
	Violations  int
	Claims      int
	Raw         json.RawMessage
}

// SessionSummary describes a stored session without its messages.
type SessionSummary struct {
	ID           string
	ContextID    string
	Title        string
	CreatedAt    string
	UpdatedAt    string
	Model        string
	MessageCount int
}

// Message is one entry of a session's message log.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is a session with its messages.
type Session struct {
	SessionSummary
	Messages []Message
}

// ChatMessage is a message sent to the chat methods.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the params of chat.send and chat.stream.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	Model     string        `json:"model"`
	ContextID string        `json:"context_id"`
}

// ChatResult is the adapted chat.send result.
type ChatResult struct {
	Content string
	Raw     json.RawMessage
}

// ModelInfo is one entry of chat.models.
type ModelInfo struct {
	ID   string
	Name string
}

// CompileRequest is the params of intent.compile.
type CompileRequest struct {
	SchemaID     string         `json:"schema_id"`
	Values       map[string]any `json:"values"`
	TemplateName string         `json:"template_name"`
	EscapeText   *string        `json:"escape_text,omitempty"`
}

// ProceedRequest is the params of commit.proceed.
type ProceedRequest struct {
	Reason string  `json:"reason"`
	Scope  *string `json:"scope,omitempty"`
	Expiry *string `json:"expiry,omitempty"`
}

// ReceiptFilter is the params of receipts.list.
type ReceiptFilter struct {
	Gate    string `json:"gate,omitempty"`
	Verdict string `json:"verdict,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}
