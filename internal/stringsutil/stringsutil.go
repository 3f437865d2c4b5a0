package stringsutil

import "strings"

// Lines splits command output into trimmed, non-empty lines.
func Lines(s string) []string {
	parts := strings.Split(s, "\n")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// LastLine returns the last non-empty line of s, or "" when there is none.
// Remote shells may print a banner before the output we asked for.
func LastLine(s string) string {
	lines := Lines(s)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// UniqueNonEmpty returns values without empty strings and duplicates,
// preserving first-seen order.
func UniqueNonEmpty(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}
