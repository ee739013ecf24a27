// ABOUTME: Plan template names and the outline shown when a template is chosen
// ABOUTME: Aliases are canonicalized before they are stored on the draft

package workflow

import (
	"fmt"
	"strings"
)

var templateAliases = map[string]string{
	"architecture":   "architecture",
	"arch":           "architecture",
	"product":        "product",
	"product design": "product",
	"requirements":   "requirements",
	"reqs":           "requirements",
}

var templateOutlines = map[string][]string{
	"architecture": {"Context", "Components", "Data flow", "Interfaces", "Risks"},
	"product":      {"Problem", "Users", "Goals", "Non-goals", "Success metrics"},
	"requirements": {"Functional", "Non-functional", "Constraints", "Acceptance criteria"},
}

// CanonicalTemplate maps a template name or alias to its canonical name.
func CanonicalTemplate(name string) (string, error) {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if canon, ok := templateAliases[key]; ok {
		return canon, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// TemplateOutline returns a markdown skeleton for a canonical template name.
func TemplateOutline(name string) string {
	sections, ok := templateOutlines[name]
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s plan\n", strings.ToUpper(name[:1])+name[1:])
	for _, s := range sections {
		fmt.Fprintf(&b, "\n## %s\n", s)
	}
	return b.String()
}
