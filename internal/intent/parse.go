// ABOUTME: Ordered-rule intent parser: first full-string match wins, CHAT otherwise
// ABOUTME: Input is trimmed and NFKC-normalized; matching is case-insensitive

package intent

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Rule maps a full-line pattern to a Kind. Extract pulls the argument from
// the submatches; nil means no argument.
type Rule struct {
	Pattern *regexp.Regexp
	Kind    Kind
	Extract func(m []string) string
}

func group(i int) func([]string) string {
	return func(m []string) string {
		if i < len(m) {
			return strings.TrimSpace(m[i])
		}
		return ""
	}
}

func rule(pattern string, kind Kind, extract func([]string) string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?is)^` + pattern + `$`), Kind: kind, Extract: extract}
}

// rules is evaluated top to bottom. Specific forms precede the general ones
// they would otherwise fall into, e.g. "plan architecture" before "plan <text>".
var rules = []Rule{
	rule(`plan\s+(architecture|arch|product(?:\s+design)?|requirements|reqs)`, KindPlanTemplate, group(1)),
	rule(`clear\s+template`, KindClearTemplate, nil),
	rule(`plan(?:\s+(.*))?`, KindPlan, group(1)),
	rule(`let['’]?s\s+plan(?:\s+(.*))?`, KindPlan, group(1)),
	rule(`(?:lock|freeze)\s+spec`, KindLockSpec, nil),
	rule(`(?:build|implement|do\s+it)`, KindBuild, nil),
	rule(`(?:show\s+)?spec`, KindShowSpec, nil),
	rule(`(?:show\s+)?diff`, KindShowDiff, nil),
	rule(`(?:apply|merge)`, KindApply, nil),
	rule(`(?:rollback|undo)`, KindRollback, nil),
	rule(`why(?:\s+(.*))?`, KindWhy, group(1)),
	rule(`blocked`, KindWhy, nil),
	rule(`(?:status|state)`, KindStatus, nil),
	rule(`(?:help|\?)`, KindHelp, nil),
	rule(`(?:sessions|list\s+sessions|ls)`, KindSessions, nil),
	rule(`(?:delete|rm)\s+session\s+(\S+)`, KindDeleteSession, group(1)),
	rule(`(?:switch|session|resume)\s+(\S+)`, KindSwitchSession, group(1)),
}

// Rules returns a copy of the rule table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Normalize trims text and applies NFKC so full-width and compatibility
// forms match the ASCII patterns.
func Normalize(text string) string {
	return strings.TrimSpace(norm.NFKC.String(strings.TrimSpace(text)))
}

// Parse classifies one input line.
func Parse(text string) Intent {
	s := Normalize(text)
	for _, r := range rules {
		m := r.Pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		in := Intent{Kind: r.Kind, Raw: s}
		if r.Extract != nil {
			in.Arg = r.Extract(m)
		}
		return in
	}
	return Intent{Kind: KindChat, Arg: s, Raw: s}
}
