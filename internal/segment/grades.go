package segment

import (
	"regexp"
	"strings"
)

// Roster imports leave grade levels as free text: "3", "Grade 3", "3rd
// grade", "third" and worse. Rather than normalizing on ingest, a requested
// grade token is matched against three patterns per candidate string:
//
//  1. bare digit-boundary match ("3" matches "3" but not "13")
//  2. "grade 3" phrase match
//  3. ordinal-suffix match ("3rd")
//
// A recipient matches when any requested grade matches any pattern.
type GradeMatcher struct {
	patterns []*regexp.Regexp
}

var digits = regexp.MustCompile(`^[0-9]+$`)

func NewGradeMatcher(grades []string) *GradeMatcher {
	m := &GradeMatcher{}
	for _, g := range grades {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if digits.MatchString(g) {
			m.patterns = append(m.patterns,
				regexp.MustCompile(`(^|[^0-9a-z])`+g+`([^0-9a-z]|$)`),
				regexp.MustCompile(`grade\s*`+g+`([^0-9]|$)`),
				regexp.MustCompile(`(^|[^0-9])`+g+ordinalSuffix(g)+`([^a-z]|$)`),
			)
			continue
		}
		m.patterns = append(m.patterns,
			regexp.MustCompile(`(^|[^0-9a-z])`+regexp.QuoteMeta(g)+`([^0-9a-z]|$)`))
	}
	return m
}

// Empty reports whether no grade constraint was requested.
func (m *GradeMatcher) Empty() bool {
	return len(m.patterns) == 0
}

// Match reports whether the candidate free-text grade satisfies any
// requested grade. An empty matcher matches everything.
func (m *GradeMatcher) Match(candidate string) bool {
	if m.Empty() {
		return true
	}
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	for _, p := range m.patterns {
		if p.MatchString(candidate) {
			return true
		}
	}
	return false
}

func ordinalSuffix(g string) string {
	// 11th, 12th, 13th, then by last digit
	if len(g) >= 2 {
		switch g[len(g)-2:] {
		case "11", "12", "13":
			return "th"
		}
	}
	switch g[len(g)-1] {
	case '1':
		return "st"
	case '2':
		return "nd"
	case '3':
		return "rd"
	}
	return "th"
}
