package core

import "strings"

const (
	RoleAction     Role = "action"
	RoleAllocation Role = "allocation"
	RoleDeclared   Role = "declared"
	RoleCommitted  Role = "committed"
)

type (
	// Role is the meaning a spreadsheet column can carry.
	Role string

	// RolePatterns lists, per role, substrings tried in priority order.
	RolePatterns map[Role][]string

	// Binding maps each resolved role to a column name of one dataset.
	// Roles with no matching column are absent from the map.
	Binding map[Role]string
)

// Roles returns every known role in display order.
func Roles() []Role {
	return []Role{RoleAction, RoleAllocation, RoleDeclared, RoleCommitted}
}

// DefaultRolePatterns returns the patterns used by the budget panel.
func DefaultRolePatterns() RolePatterns {
	return RolePatterns{
		RoleAction:     {"ação", "pt"},
		RoleAllocation: {"loa", "dot"},
		RoleDeclared:   {"declarado"},
		RoleCommitted:  {"empenhado"},
	}
}

// Resolve binds each role to the first header containing one of its
// patterns, case-insensitively. Patterns are tried in order and, for each
// pattern, headers are scanned left to right; the first hit wins.
func Resolve(headers []string, patterns RolePatterns) Binding {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(h)
	}

	b := Binding{}
	for role, pats := range patterns {
		if col, ok := matchColumn(headers, lowered, pats); ok {
			b[role] = col
		}
	}
	return b
}

func matchColumn(headers, lowered, patterns []string) (string, bool) {
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		for i, h := range lowered {
			if strings.Contains(h, p) {
				return headers[i], true
			}
		}
	}
	return "", false
}

// Column returns the column bound to role.
func (b Binding) Column(role Role) (string, bool) {
	col, ok := b[role]
	return col, ok
}

// Has reports whether every given role is bound.
func (b Binding) Has(roles ...Role) bool {
	for _, r := range roles {
		if _, ok := b[r]; !ok {
			return false
		}
	}
	return true
}
