package safety

import (
	"fmt"
	"strings"
)

// CommandPolicy allow/deny-lists shell command base commands.
// Grounded on the teacher's pkg/tools/command.go validateCommand /
// extractBaseCommand pair, generalized into a standalone policy the
// Safety Guard owns rather than the tool itself, since spec §4.2
// assigns shell allow/deny-listing to the Safety Guard, not the Tool
// Registry.
type CommandPolicy struct {
	Allow []string // if non-empty, only these base commands are permitted
	Deny  []string // always rejected, regardless of Allow
}

// Check tokenizes command on shell separators (|, ;, &&, ||, <, >) and
// validates each segment's base command against the policy.
func (p CommandPolicy) Check(command string) error {
	segments := strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == ';' || r == '<' || r == '>' || r == '&'
	})
	if len(segments) == 0 {
		return fmt.Errorf("empty command")
	}

	for _, seg := range segments {
		base := baseCommand(seg)
		if base == "" {
			continue
		}
		for _, denied := range p.Deny {
			if base == denied {
				return fmt.Errorf("command %q is denied", base)
			}
		}
		if len(p.Allow) > 0 && !contains(p.Allow, base) {
			return fmt.Errorf("command %q is not in the allow list", base)
		}
	}
	return nil
}

func baseCommand(segment string) string {
	fields := strings.Fields(strings.TrimSpace(segment))
	if len(fields) == 0 {
		return ""
	}
	// strip a leading path, e.g. /usr/bin/rm -> rm
	parts := strings.Split(fields[0], "/")
	return parts[len(parts)-1]
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
