// ABOUTME: Session operations: switch, create, delete, list, bootstrap, and reference resolution
// ABOUTME: Switching or creating a session resets the machine to PLAN with an empty draft

package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mauromedda/maude-go/internal/display"
	"github.com/mauromedda/maude-go/internal/governor"
)

// BootstrapTitle is the title of the session created when none exist.
const BootstrapTitle = "Maude session"

// SwitchSession makes id the active session. On error the machine is
// unchanged.
func (m *Machine) SwitchSession(ctx context.Context, id string) (governor.Session, error) {
	sess, err := m.backend.GetSession(ctx, id)
	if err != nil {
		return governor.Session{}, fmt.Errorf("switch session: %w", err)
	}
	m.adopt(sess, "switch session")
	return sess, nil
}

// NewSession creates a session and makes it active.
func (m *Machine) NewSession(ctx context.Context, title string) (governor.Session, error) {
	sess, err := m.backend.CreateSession(ctx, title)
	if err != nil {
		return governor.Session{}, fmt.Errorf("new session: %w", err)
	}
	m.adopt(sess, "new session")

	m.mu.Lock()
	m.summaries = append([]governor.SessionSummary{sess.SessionSummary}, m.summaries...)
	m.mu.Unlock()
	return sess, nil
}

func (m *Machine) adopt(sess governor.Session, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state()
	summary := sess.SessionSummary
	m.session = &summary
	m.messages = append([]governor.Message(nil), sess.Messages...)
	m.mode = ModePlan
	m.draft = Draft{}
	m.gen++
	m.record(from, reason)
	m.logger.Infow("session active", "id", summary.ID, "title", summary.Title, "messages", len(sess.Messages))
}

// DeleteSession deletes a session. Deleting the active session clears it.
func (m *Machine) DeleteSession(ctx context.Context, id string) (bool, error) {
	ok, err := m.backend.DeleteSession(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	if !ok {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.ID == id {
		m.session = nil
		m.messages = nil
	}
	kept := m.summaries[:0]
	for _, s := range m.summaries {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	m.summaries = kept
	return true, nil
}

// ListSessions fetches the session list and caches it for #N references.
func (m *Machine) ListSessions(ctx context.Context) ([]governor.SessionSummary, error) {
	list, err := m.backend.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	m.mu.Lock()
	m.summaries = append([]governor.SessionSummary(nil), list...)
	m.mu.Unlock()
	return list, nil
}

// ActiveSession returns the active session id, or "" when there is none.
func (m *Machine) ActiveSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.ID
}

// RequireSession returns the active session id or ErrNoSession.
func (m *Machine) RequireSession() (string, error) {
	if id := m.ActiveSession(); id != "" {
		return id, nil
	}
	return "", ErrNoSession
}

// ResolveSessionRef turns a user reference into a session id. It accepts a
// 1-based #N index into the last listed sessions, an exact id, a unique id
// prefix, or a fuzzy title match. Anything else is returned unchanged.
func (m *Machine) ResolveSessionRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrSessionRef)
	}

	m.mu.Lock()
	list := append([]governor.SessionSummary(nil), m.summaries...)
	m.mu.Unlock()

	if rest, ok := strings.CutPrefix(ref, "#"); ok {
		if n, err := strconv.Atoi(rest); err == nil {
			if n < 1 || n > len(list) {
				return "", fmt.Errorf("%w: %s is out of range (%d listed)", ErrSessionRef, ref, len(list))
			}
			return list[n-1].ID, nil
		}
	}

	var prefixed []string
	for _, s := range list {
		if s.ID == ref {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			prefixed = append(prefixed, s.ID)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
	default:
		return "", fmt.Errorf("%w: %q matches %d sessions", ErrSessionRef, ref, len(prefixed))
	}

	titles := make([]string, len(list))
	for i, s := range list {
		titles[i] = s.Title
	}
	if matches := display.Find(ref, titles); len(matches) > 0 {
		return list[matches[0].Index].ID, nil
	}
	return ref, nil
}

// Bootstrap resumes the most recent session, or creates one when the
// daemon has none. It reports whether a session was created.
func (m *Machine) Bootstrap(ctx context.Context) (governor.Session, bool, error) {
	list, err := m.ListSessions(ctx)
	if err != nil {
		return governor.Session{}, false, err
	}
	if len(list) > 0 {
		sess, err := m.SwitchSession(ctx, list[0].ID)
		return sess, false, err
	}
	sess, err := m.NewSession(ctx, BootstrapTitle)
	return sess, err == nil, err
}
