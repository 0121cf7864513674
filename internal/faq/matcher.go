package faq

import (
	"strings"
	"unicode/utf8"

	"github.com/gat-college/faqbot/internal/fuzzy"
	"github.com/gat-college/faqbot/internal/textnorm"
)

// DefaultThreshold is the minimum score for a fuzzy hit.
const DefaultThreshold = 70.0

const (
	maxLengthGap = 100
	prefixBonus  = 5.0
)

// Scorer rates the similarity of two normalized strings on a 0-100 scale.
type Scorer func(query, candidate string) float64

// Match is the best-scoring entry for a question.
type Match struct {
	Entry Entry
	Score float64
}

// Matcher finds the closest FAQ in a snapshot.
type Matcher struct {
	Threshold float64
	Scorer    Scorer
}

// NewMatcher returns a token-sort matcher. A non-positive threshold selects
// DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold, Scorer: fuzzy.TokenSortRatio}
}

// BestMatch scores every entry in snapshot order. Entries whose length
// differs from the query by more than 100 characters are skipped, and an
// entry that starts with the query gets a bonus. Ties keep the earlier
// entry. The best is returned only when it reaches the threshold.
func (m *Matcher) BestMatch(s *Snapshot, question string) (Match, bool) {
	q := textnorm.Query(question)
	if q == "" || s.Len() == 0 {
		return Match{}, false
	}
	qLen := utf8.RuneCountInString(q)

	var (
		best  Match
		found bool
	)
	for _, e := range s.Entries {
		if gap := utf8.RuneCountInString(e.Normalized) - qLen; gap > maxLengthGap || gap < -maxLengthGap {
			continue
		}
		score := m.Scorer(q, e.Normalized)
		if strings.HasPrefix(e.Normalized, q) {
			score += prefixBonus
		}
		if !found || score > best.Score {
			best = Match{Entry: e, Score: score}
			found = true
		}
	}

	if !found || best.Score < m.Threshold {
		return Match{}, false
	}
	return best, true
}
