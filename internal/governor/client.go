// ABOUTME: Typed governor daemon method surface over the JSON-RPC client
// ABOUTME: Health, state, sessions, chat, intent compiler, commit, receipts, scars, constraints

package governor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/maude-go/internal/rpc"
)

// ChatDeltaMethod is the notification method carrying chat.stream deltas.
const ChatDeltaMethod = "chat.delta"

// ErrSessionNotFound is returned by GetSession when the daemon has no such session.
var ErrSessionNotFound = errors.New("governor: session not found")

// Caller is the RPC surface the governor client needs.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
	Stream(ctx context.Context, method string, params any, notifyMethod string) (*rpc.Stream, error)
}

// Client exposes the governor daemon's methods with typed results.
type Client struct {
	rpc       Caller
	contextID string
}

// NewClient wraps c. contextID is sent where the daemon expects one.
func NewClient(c Caller, contextID string) *Client {
	if contextID == "" {
		contextID = "default"
	}
	return &Client{rpc: c, contextID: contextID}
}

// ContextID returns the governor context the client addresses.
func (c *Client) ContextID() string { return c.contextID }

func (c *Client) raw(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.rpc.Call(ctx, method, params, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return raw, nil
}

func (c *Client) object(ctx context.Context, method string, params any) (gjson.Result, error) {
	raw, err := c.raw(ctx, method, params)
	if err != nil {
		return gjson.Result{}, err
	}
	return expectObject(method, raw)
}

// Health performs the governor.hello handshake.
func (c *Client) Health(ctx context.Context) (Health, error) {
	r, err := c.object(ctx, "governor.hello", nil)
	if err != nil {
		return Health{}, err
	}
	return adaptHealth(r), nil
}

// Now returns the compact governor state used by the status bar.
func (c *Client) Now(ctx context.Context) (Now, error) {
	r, err := c.object(ctx, "governor.now", nil)
	if err != nil {
		return Now{}, err
	}
	return adaptNow(r), nil
}

// Status returns the full governor status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	r, err := c.object(ctx, "governor.status", nil)
	if err != nil {
		return Status{}, err
	}
	return adaptStatus(r), nil
}

// ListSessions returns stored sessions in daemon order.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	raw, err := c.raw(ctx, "sessions.list", nil)
	if err != nil {
		return nil, err
	}
	r, err := expectArray("sessions.list", raw)
	if err != nil {
		return nil, err
	}
	var out []SessionSummary
	for _, capsule := range r.Array() {
		out = append(out, adaptSessionSummary(capsule))
	}
	return out, nil
}

// CreateSession creates a session titled title.
func (c *Client) CreateSession(ctx context.Context, title string) (Session, error) {
	if title == "" {
		title = "New conversation"
	}
	r, err := c.object(ctx, "sessions.create", map[string]string{"title": title})
	if err != nil {
		return Session{}, err
	}
	return adaptSession(r), nil
}

// GetSession fetches a session with its messages.
func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	raw, err := c.raw(ctx, "sessions.get", map[string]string{"id": id})
	if err != nil {
		return Session{}, err
	}
	if r := gjson.ParseBytes(raw); !r.Exists() || r.Type == gjson.Null {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	r, err := expectObject("sessions.get", raw)
	if err != nil {
		return Session{}, err
	}
	return adaptSession(r), nil
}

// DeleteSession deletes a session and reports whether the daemon did so.
func (c *Client) DeleteSession(ctx context.Context, id string) (bool, error) {
	r, err := c.object(ctx, "sessions.delete", map[string]string{"id": id})
	if err != nil {
		return false, err
	}
	return r.Get("success").Bool(), nil
}

// AddConstraint submits a locked spec to the governor as a constraint.
func (c *Client) AddConstraint(ctx context.Context, text, template string) error {
	params := map[string]any{
		"constraint": text,
		"context_id": c.contextID,
	}
	if template != "" {
		params["template"] = template
	}
	_, err := c.raw(ctx, "constraints.add", params)
	return err
}

// ChatSend runs a non-streaming governed chat.
func (c *Client) ChatSend(ctx context.Context, req ChatRequest) (ChatResult, error) {
	raw, err := c.raw(ctx, "chat.send", c.chatParams(req))
	if err != nil {
		return ChatResult{}, err
	}
	return adaptChatResult(raw), nil
}

// ChatStream starts a streaming governed chat.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (*ChatStream, error) {
	s, err := c.rpc.Stream(ctx, "chat.stream", c.chatParams(req), ChatDeltaMethod)
	if err != nil {
		return nil, fmt.Errorf("chat.stream: %w", err)
	}
	return &ChatStream{s: s}, nil
}

func (c *Client) chatParams(req ChatRequest) ChatRequest {
	if req.ContextID == "" {
		req.ContextID = c.contextID
	}
	if req.Messages == nil {
		req.Messages = []ChatMessage{}
	}
	return req
}

// ChatModels lists the models the backend offers.
func (c *Client) ChatModels(ctx context.Context) ([]ModelInfo, error) {
	r, err := c.object(ctx, "chat.models", nil)
	if err != nil {
		return nil, err
	}
	return adaptModels(r), nil
}

// ChatBackend returns backend details.
func (c *Client) ChatBackend(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "chat.backend", nil)
}

// IntentTemplates lists intent templates.
func (c *Client) IntentTemplates(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "intent.templates", nil)
}

// IntentSchema returns the form schema for a template.
func (c *Client) IntentSchema(ctx context.Context, templateName string) (json.RawMessage, error) {
	return c.raw(ctx, "intent.schema", map[string]string{"template_name": templateName})
}

// IntentValidate validates form values against a schema.
func (c *Client) IntentValidate(ctx context.Context, schemaID string, values map[string]any) (json.RawMessage, error) {
	return c.raw(ctx, "intent.validate", map[string]any{"schema_id": schemaID, "values": values})
}

// IntentCompile compiles form values into an intent.
func (c *Client) IntentCompile(ctx context.Context, req CompileRequest) (json.RawMessage, error) {
	return c.raw(ctx, "intent.compile", req)
}

// IntentPolicy returns the intent policy.
func (c *Client) IntentPolicy(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "intent.policy", nil)
}

// CommitPending returns the pending commit, or JSON null when there is none.
func (c *Client) CommitPending(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "commit.pending", nil)
}

// CommitFix resolves a pending violation with corrected text.
func (c *Client) CommitFix(ctx context.Context, correctedText string) (json.RawMessage, error) {
	return c.raw(ctx, "commit.fix", map[string]string{"corrected_text": correctedText})
}

// CommitRevise revises the anchor. An empty newAnchor sends no anchor text.
func (c *Client) CommitRevise(ctx context.Context, newAnchor string) (json.RawMessage, error) {
	params := map[string]string{}
	if newAnchor != "" {
		params["new_anchor_text"] = newAnchor
	}
	return c.raw(ctx, "commit.revise", params)
}

// CommitProceed proceeds past a violation with a recorded exception.
func (c *Client) CommitProceed(ctx context.Context, req ProceedRequest) (json.RawMessage, error) {
	return c.raw(ctx, "commit.proceed", req)
}

// CommitExceptions lists recorded exceptions.
func (c *Client) CommitExceptions(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "commit.exceptions", nil)
}

// Receipts lists gate receipts.
func (c *Client) Receipts(ctx context.Context, f ReceiptFilter) (json.RawMessage, error) {
	return c.raw(ctx, "receipts.list", f)
}

// ReceiptDetail returns one receipt.
func (c *Client) ReceiptDetail(ctx context.Context, id string) (json.RawMessage, error) {
	return c.raw(ctx, "receipts.detail", map[string]string{"receipt_id": id})
}

// Scars lists scars.
func (c *Client) Scars(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "scars.list", nil)
}

// ScarHistory returns up to limit scar history entries.
func (c *Client) ScarHistory(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.raw(ctx, "scars.history", map[string]int{"limit": limit})
}
