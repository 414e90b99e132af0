package catalog

import (
	"fmt"
	"sort"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a problem spotted by Verify.
type Finding struct {
	Severity Severity `json:"severity"`
	Template string   `json:"template,omitempty"`
	Role     string   `json:"role,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(string(f.Severity))
	if f.Template != "" {
		b.WriteString(" ")
		b.WriteString(f.Template)
	}
	if f.Role != "" {
		fmt.Fprintf(&b, " [%s]", f.Role)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	return b.String()
}

// Verify cross-checks the path map against the org chart. A grant naming a
// role that is neither a chart role id, a chart role key nor one of
// ambientKeys is an error. Templates nobody can reach and chart roles with no
// grant at all are warnings. Ambient keys compare case-insensitively.
func Verify(c *Catalog, ambientKeys ...string) []Finding {
	if c == nil {
		return []Finding{{Severity: SeverityError, Message: "catalog is empty"}}
	}

	known := map[string]bool{}
	for _, r := range c.Chart.Roles() {
		known[r.ID] = true
		if r.RoleKey != "" {
			known[r.RoleKey] = true
		}
	}
	ambient := map[string]bool{}
	for _, k := range ambientKeys {
		ambient[strings.ToLower(k)] = true
	}

	var findings []Finding
	granted := map[string]bool{}

	for _, e := range c.Paths.Entries() {
		if len(e.ViewRoles) == 0 && len(e.ActionRoles) == 0 {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Template: e.Template,
				Message:  "no roles may view or act on this path",
			})
		}

		reported := map[string]bool{}
		for _, role := range append(append([]string{}, e.ViewRoles...), e.ActionRoles...) {
			granted[role] = true
			if known[role] || ambient[strings.ToLower(role)] || reported[role] {
				continue
			}
			reported[role] = true
			findings = append(findings, Finding{
				Severity: SeverityError,
				Template: e.Template,
				Role:     role,
				Message:  "role is not in the org chart",
			})
		}
	}

	for _, r := range c.Chart.Roles() {
		if granted[r.ID] || (r.RoleKey != "" && granted[r.RoleKey]) {
			continue
		}
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Role:     r.ID,
			Message:  "role has no path grants",
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity == SeverityError && findings[j].Severity != SeverityError
	})
	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
