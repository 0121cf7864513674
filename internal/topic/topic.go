// Package topic decides whether a question is about the college at all.
package topic

import "strings"

// DefaultKeywords open the gate to the AI fallback.
var DefaultKeywords = []string{
	"college", "admission", "fee", "course", "department", "faculty",
	"placement", "exam", "hod", "cse", "ece", "ise", "ai", "ml", "mba",
	"hostel", "transport", "canteen", "library", "scholarship",
}

// Gate is a case-insensitive substring test against a keyword list.
type Gate struct {
	keywords []string
}

// NewGate returns a gate over keywords; empty ones are dropped.
func NewGate(keywords []string) *Gate {
	g := &Gate{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			g.keywords = append(g.keywords, k)
		}
	}
	return g
}

// NewDefaultGate returns a gate over DefaultKeywords.
func NewDefaultGate() *Gate {
	return NewGate(DefaultKeywords)
}

// InDomain reports whether question contains any keyword. Matching is
// plain substring, so "ai" also matches "said" and "email".
func (g *Gate) InDomain(question string) bool {
	q := strings.ToLower(question)
	for _, k := range g.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
