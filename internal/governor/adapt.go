// ABOUTME: Shape adapters from raw daemon JSON to typed results using gjson lookups
// ABOUTME: Missing fields take defaults; only the top-level JSON kind is checked

package governor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrShape reports a response whose top-level JSON kind is not the one the
// method returns.
var ErrShape = errors.New("governor: unexpected response shape")

func expectObject(method string, raw json.RawMessage) (gjson.Result, error) {
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return r, fmt.Errorf("%w: %s: want object, got %s", ErrShape, method, kind(r))
	}
	return r, nil
}

func expectArray(method string, raw json.RawMessage) (gjson.Result, error) {
	r := gjson.ParseBytes(raw)
	if !r.IsArray() {
		return r, fmt.Errorf("%w: %s: want array, got %s", ErrShape, method, kind(r))
	}
	return r, nil
}

func kind(r gjson.Result) string {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return "null"
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	default:
		return r.Type.String()
	}
}

func str(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}

func adaptHealth(r gjson.Result) Health {
	gov := r.Get("governor")
	backend := r.Get("capabilities.backend")
	h := Health{
		Status: "degraded",
		Backend: BackendInfo{
			Type:      str(backend, "type", "unknown"),
			Connected: backend.Get("connected").Bool(),
		},
		Governor: GovernorInfo{
			ContextID:   str(gov, "context_id", "default"),
			Mode:        str(gov, "mode", "general"),
			Initialized: gov.Get("initialized").Bool(),
		},
	}
	if h.Governor.Initialized {
		h.Status = "ok"
	}
	return h
}

func adaptNow(r gjson.Result) Now {
	n := Now{
		ContextID:       str(r, "context_id", "default"),
		Status:          str(r, "pill", "UNKNOWN"),
		Sentence:        str(r, "sentence", ""),
		Regime:          str(r, "regime", ""),
		SuggestedAction: str(r, "suggested_action", ""),
		Mode:            str(r, "mode", "general"),
	}
	if ev := r.Get("last_event"); ev.IsObject() {
		n.LastEvent = json.RawMessage(ev.Raw)
	}
	return n
}

func adaptStatus(r gjson.Result) Status {
	return Status{
		ContextID:   str(r, "context_id", "default"),
		Initialized: r.Get("initialized").Bool(),
		Mode:        str(r, "mode", "general"),
		Decisions:   count(r.Get("viewmodel.decisions")),
		Violations:  count(r.Get("viewmodel.violations")),
		Claims:      count(r.Get("viewmodel.claims")),
		Raw:         json.RawMessage(r.Raw),
	}
}

// count accepts either an array or a number.
func count(r gjson.Result) int {
	if r.IsArray() {
		return len(r.Array())
	}
	return int(r.Int())
}

// sessionMeta returns the metadata block of a session capsule, or the
// capsule itself when it is flat.
func sessionMeta(capsule gjson.Result) gjson.Result {
	if meta := capsule.Get("metadata"); meta.IsObject() {
		return meta
	}
	return capsule
}

func adaptSessionSummary(capsule gjson.Result) SessionSummary {
	meta := sessionMeta(capsule)
	created := str(meta, "created_at", "")
	return SessionSummary{
		ID:           str(meta, "session_id", str(meta, "id", "")),
		ContextID:    str(meta, "context_id", "default"),
		Title:        str(meta, "name", str(meta, "title", "Untitled")),
		CreatedAt:    created,
		UpdatedAt:    str(meta, "updated_at", created),
		Model:        str(meta, "model", ""),
		MessageCount: int(meta.Get("message_count").Int()),
	}
}

func adaptSession(capsule gjson.Result) Session {
	s := Session{SessionSummary: adaptSessionSummary(capsule)}
	for _, m := range capsule.Get("messages").Array() {
		s.Messages = append(s.Messages, Message{
			ID:        str(m, "id", ""),
			Role:      str(m, "role", ""),
			Content:   str(m, "content", ""),
			Timestamp: str(m, "timestamp", ""),
		})
	}
	if s.MessageCount == 0 {
		s.MessageCount = len(s.Messages)
	}
	return s
}

func adaptChatResult(raw json.RawMessage) ChatResult {
	r := gjson.ParseBytes(raw)
	content := r.Get("content").String()
	if content == "" {
		content = r.Get("choices.0.message.content").String()
	}
	return ChatResult{Content: content, Raw: raw}
}

func adaptModels(r gjson.Result) []ModelInfo {
	var models []ModelInfo
	for _, m := range r.Get("models").Array() {
		if m.Type == gjson.String {
			models = append(models, ModelInfo{ID: m.String(), Name: m.String()})
			continue
		}
		id := str(m, "id", "")
		models = append(models, ModelInfo{ID: id, Name: str(m, "name", id)})
	}
	return models
}
