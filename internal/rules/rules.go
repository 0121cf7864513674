// Package rules answers department-head questions from an ordered keyword table.
package rules

import (
	"strings"

	"github.com/gat-college/faqbot/internal/textnorm"
)

// Entry pairs a keyword list with a canned answer.
type Entry struct {
	Keywords []string
	Answer   string
}

// Matcher scans an ordered table; the first keyword found as a substring
// of the question wins.
type Matcher struct {
	entries []Entry
}

// NewMatcher returns a matcher over entries, in the given order.
// Keywords are lowercased and trimmed once here; empty ones are dropped.
func NewMatcher(entries []Entry) *Matcher {
	prepared := make([]Entry, 0, len(entries))
	for _, e := range entries {
		keys := make([]string, 0, len(e.Keywords))
		for _, k := range e.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keys = append(keys, k)
			}
		}
		prepared = append(prepared, Entry{Keywords: keys, Answer: e.Answer})
	}
	return &Matcher{entries: prepared}
}

// NewDefaultMatcher returns a matcher over DepartmentHeads.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(DepartmentHeads)
}

// Match returns the answer of the first entry with a keyword contained in
// question. A miss is not an error.
func (m *Matcher) Match(question string) (string, bool) {
	if m == nil {
		return "", false
	}
	q := textnorm.RuleForm(question)
	if q == "" {
		return "", false
	}

	for _, e := range m.entries {
		for _, k := range e.Keywords {
			if strings.Contains(q, k) {
				return e.Answer, true
			}
		}
	}
	return "", false
}

// Len returns the number of table entries.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
