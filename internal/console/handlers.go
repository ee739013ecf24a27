// ABOUTME: Per-intent handlers: planning, locking, build, sessions, governor queries, and chat
// ABOUTME: Workflow sentinel errors become warnings; daemon failures become error lines

package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/maude-go/internal/display"
	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/workflow"
)

func healthBanner(h governor.Health) string {
	return fmt.Sprintf("Connected (%s): backend=%s mode=%s context=%s",
		h.Status, h.Backend.Type, h.Governor.Mode, h.Governor.ContextID)
}

func sessionLine(prefix string, s governor.Session) string {
	title := s.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("%s %s (%s, %d messages)", prefix, s.ID, title, len(s.Messages))
}

// warnOrError renders workflow sentinels as warnings and anything else as
// an error line prefixed with what.
func (c *Console) warnOrError(what string, err error) {
	for _, sentinel := range []error{
		workflow.ErrNothingToLock, workflow.ErrNotLocked, workflow.ErrInBuildMode,
		workflow.ErrEmptyPlan, workflow.ErrNoSession, workflow.ErrUnknownTemplate,
		workflow.ErrSessionRef, governor.ErrSessionNotFound,
	} {
		if errors.Is(err, sentinel) {
			c.emit(KindWarn, err.Error())
			return
		}
	}
	c.emit(KindError, what+" error: "+err.Error())
}

func (c *Console) plan(text string) {
	if text == "" {
		c.emit(KindDim, "Usage: plan <description>")
		return
	}
	n, err := c.machine.AppendPlan(text)
	if err != nil {
		c.warnOrError("Plan", err)
		return
	}
	c.emit(KindDim, fmt.Sprintf("Added to spec draft (%d chars)", n))
}

func (c *Console) planTemplate(name string) {
	canon, err := c.machine.SetTemplate(name)
	if err != nil {
		c.warnOrError("Template", err)
		return
	}
	c.emit(KindSuccess, "Template: "+canon)
	c.emit(KindMarkdown, workflow.TemplateOutline(canon))
	c.emit(KindDim, "Fill in the sections with 'plan <text>', then 'lock spec'.")
}

func (c *Console) clearTemplate() {
	if err := c.machine.ClearTemplate(); err != nil {
		c.warnOrError("Template", err)
		return
	}
	c.emit(KindDim, "Template cleared.")
}

// LockSpec locks the draft and reports the submission outcome.
func (c *Console) LockSpec(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	res, err := c.machine.LockSpec(cctx)
	switch {
	case errors.Is(err, workflow.ErrNothingToLock):
		c.emit(KindWarn, "No spec draft to lock. Use 'plan <text>' first.")
	case err != nil:
		c.warnOrError("Lock", err)
	case res.AlreadyLocked:
		c.emit(KindDim, "Spec already locked.")
	case res.SubmitErr != nil:
		c.emit(KindSuccess, "Spec locked.")
		c.emit(KindWarn, "Submitting to the governor failed: "+res.SubmitErr.Error())
		c.emit(KindDim, "It will be resubmitted when the governor is reachable.")
	default:
		c.emit(KindSuccess, "Spec locked and submitted to the governor.")
	}
}

func (c *Console) build() {
	if err := c.machine.Build(); err != nil {
		c.warnOrError("Build", err)
		return
	}
	c.emit(KindSuccess, "Switched to BUILD mode.")
}

func (c *Console) showSpec() {
	d := c.machine.Draft()
	if d.Text == "" {
		c.emit(KindDim, "No spec draft yet. Use 'plan <text>' to start.")
		return
	}
	marker := "UNLOCKED"
	if d.Locked {
		marker = "LOCKED"
	}
	head := "Spec Draft (" + marker + ")"
	if d.Template != "" {
		head += " [" + d.Template + "]"
	}
	if d.PendingSubmit {
		head += " pending submission"
	}
	c.emit(KindHeading, head)
	c.emit(KindMarkdown, d.Text)
}

func (c *Console) status(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	st, err := c.gov.Status(cctx)
	if err != nil {
		c.emit(KindError, "Status error: "+err.Error())
		return
	}
	c.emit(KindHeading, "Governor Status:")
	c.emit(KindInfo, fmt.Sprintf("  context: %s", st.ContextID))
	c.emit(KindInfo, fmt.Sprintf("  mode: %s", st.Mode))
	c.emit(KindInfo, fmt.Sprintf("  initialized: %t", st.Initialized))
	c.emit(KindInfo, fmt.Sprintf("  decisions: %d", st.Decisions))
	c.emit(KindInfo, fmt.Sprintf("  violations: %d", st.Violations))
	c.emit(KindInfo, fmt.Sprintf("  claims: %d", st.Claims))
}

func (c *Console) why(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	now, err := c.gov.Now(cctx)
	if err != nil {
		c.emit(KindError, "Why error: "+err.Error())
		return
	}
	sentence := now.Sentence
	if sentence == "" {
		sentence = "Nothing is blocked (" + now.Status + ")."
	}
	c.emit(KindInfo, "Why: "+sentence)
	if now.SuggestedAction != "" {
		c.emit(KindDim, "Suggested: "+now.SuggestedAction)
	}
}

// emitJSON pretty-prints a raw daemon result, or says so when it is empty.
func (c *Console) emitJSON(title string, raw json.RawMessage) {
	r := gjson.ParseBytes(raw)
	if !r.Exists() || r.Type == gjson.Null || (r.IsObject() && len(r.Map()) == 0) || (r.IsArray() && len(r.Array()) == 0) {
		c.emit(KindDim, title+": nothing pending.")
		return
	}
	c.emit(KindHeading, title+":")
	c.emit(KindInfo, strings.TrimRight(gjson.GetBytes(raw, "@pretty").Raw, "\n"))
}

func (c *Console) showDiff(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	raw, err := c.gov.CommitPending(cctx)
	if err != nil {
		c.emit(KindError, "Diff error: "+err.Error())
		return
	}
	c.emitJSON("Pending commit", raw)
}

func (c *Console) apply(ctx context.Context) {
	if c.machine.Mode() != workflow.ModeBuild {
		c.emit(KindWarn, "Apply requires BUILD mode. Lock the spec and 'build' first.")
		return
	}
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	raw, err := c.gov.CommitProceed(cctx, governor.ProceedRequest{Reason: "applied from maude"})
	if err != nil {
		c.emit(KindError, "Apply error: "+err.Error())
		return
	}
	c.emit(KindSuccess, "Applied.")
	c.emitJSON("Result", raw)
}

func (c *Console) rollback(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	raw, err := c.gov.CommitRevise(cctx, "")
	if err != nil {
		c.emit(KindError, "Rollback error: "+err.Error())
		return
	}
	c.emit(KindSuccess, "Rolled back.")
	c.emitJSON("Result", raw)
}

func (c *Console) sessions(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	list, err := c.machine.ListSessions(cctx)
	if err != nil {
		c.emit(KindError, "Sessions error: "+err.Error())
		return
	}
	if len(list) == 0 {
		c.emit(KindDim, "No sessions.")
		return
	}
	active := c.machine.ActiveSession()
	c.emit(KindHeading, "Sessions:")
	for i, s := range list {
		mark := " "
		if s.ID == active {
			mark = "*"
		}
		updated := s.UpdatedAt
		if updated == "" {
			updated = "-"
		}
		c.emit(KindInfo, fmt.Sprintf("%s #%-2d %s  %s  %s", mark, i+1,
			display.Truncate(s.ID, 12), display.PadRight(display.Truncate(s.Title, 40), 40), updated))
	}
}

func (c *Console) switchSession(ctx context.Context, ref string) {
	id, err := c.machine.ResolveSessionRef(ref)
	if err != nil {
		c.warnOrError("Switch", err)
		return
	}
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	sess, err := c.machine.SwitchSession(cctx, id)
	if err != nil {
		c.warnOrError("Switch", err)
		return
	}
	c.emit(KindSuccess, sessionLine("Switched to session", sess))
}

func (c *Console) deleteSession(ctx context.Context, ref string) {
	id, err := c.machine.ResolveSessionRef(ref)
	if err != nil {
		c.warnOrError("Delete", err)
		return
	}
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	ok, err := c.machine.DeleteSession(cctx, id)
	switch {
	case err != nil:
		c.warnOrError("Delete", err)
	case !ok:
		c.emit(KindWarn, "Session "+id+" was not deleted.")
	default:
		c.emit(KindSuccess, "Deleted session "+id)
	}
}

// NewSession creates and activates a fresh session.
func (c *Console) NewSession(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	sess, err := c.machine.NewSession(cctx, "")
	if err != nil {
		c.emit(KindError, "New session error: "+err.Error())
		return
	}
	c.emit(KindSuccess, sessionLine("New session", sess))
}

// chat sends the message log to chat.stream and renders deltas as they
// arrive. On failure only the user message stays in the log.
func (c *Console) chat(ctx context.Context, text string) {
	c.emit(KindUser, text)
	c.machine.AddMessage("user", text)

	stream, err := c.gov.ChatStream(ctx, governor.ChatRequest{
		Messages: c.machine.ChatHistory(),
		Model:    c.model,
	})
	if err != nil {
		c.emit(KindError, "Chat error: "+err.Error())
		return
	}
	defer stream.Close()

	c.emit(KindAssistant, "")
	var reply strings.Builder
	for delta, err := range stream.Deltas(ctx) {
		if err != nil {
			c.emit(KindEnd, "")
			c.emit(KindError, "Chat error: "+err.Error())
			return
		}
		reply.WriteString(delta)
		c.emit(KindDelta, delta)
	}
	c.emit(KindEnd, "")
	c.machine.AddMessage("assistant", reply.String())
}
