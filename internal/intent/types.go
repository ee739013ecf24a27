// ABOUTME: Intent kinds recognized in user input lines
// ABOUTME: Closed set of command tags plus the CHAT fallback

package intent

import "fmt"

// Kind is the classified purpose of an input line.
type Kind int

const (
	KindChat          Kind = iota // Free text sent to the model
	KindPlan                      // Append to the spec draft
	KindPlanTemplate              // Start a templated plan
	KindClearTemplate             // Drop the draft's template
	KindLockSpec                  // Lock the draft and submit it
	KindBuild                     // Enter BUILD mode
	KindShowSpec                  // Print the draft
	KindShowDiff                  // Show the pending commit
	KindApply                     // Proceed with the pending commit
	KindRollback                  // Revise the pending commit
	KindWhy                       // Explain the governor's current verdict
	KindStatus                    // Print governor status
	KindHelp                      // Print help
	KindSessions                  // List sessions
	KindSwitchSession             // Switch the active session
	KindDeleteSession             // Delete a session
)

var kindNames = [...]string{
	KindChat:          "CHAT",
	KindPlan:          "PLAN",
	KindPlanTemplate:  "PLAN_TEMPLATE",
	KindClearTemplate: "CLEAR_TEMPLATE",
	KindLockSpec:      "LOCK_SPEC",
	KindBuild:         "BUILD",
	KindShowSpec:      "SHOW_SPEC",
	KindShowDiff:      "SHOW_DIFF",
	KindApply:         "APPLY",
	KindRollback:      "ROLLBACK",
	KindWhy:           "WHY",
	KindStatus:        "STATUS",
	KindHelp:          "HELP",
	KindSessions:      "SESSIONS",
	KindSwitchSession: "SWITCH_SESSION",
	KindDeleteSession: "DELETE_SESSION",
}

// String returns the tag name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Intent is the result of parsing one input line.
type Intent struct {
	Kind Kind
	Arg  string // extracted argument; the whole line for CHAT
	Raw  string // trimmed, normalized input
}
