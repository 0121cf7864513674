// Package textnorm canonicalizes free-text questions into comparable forms.
//
// Two variants exist and callers must pick one per use site:
//   - Query strips '&' and is used for request-time matching against the FAQ cache.
//   - Key keeps '&' and is the store's q_norm dedup key.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	parenthetical  = regexp.MustCompile(`\([^)]*\)`)
	notAlnum       = regexp.MustCompile(`[^a-z0-9\s]`)
	notAlnumOrAmp  = regexp.MustCompile(`[^a-z0-9&\s]`)
	notWordOrAmp   = regexp.MustCompile(`[^\p{L}\p{N}_\s&]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Options controls normalization.
type Options struct {
	// PreserveAmpersand keeps '&' instead of replacing it with a space.
	PreserveAmpersand bool
}

// Normalize maps text to its canonical form: lowercase, parenthesized
// segments removed, every character outside [a-z0-9] (and '&' when
// preserved) replaced with a space, whitespace collapsed and trimmed.
//
// The output alphabet is [a-z0-9 &], so Normalize is idempotent.
func Normalize(s string, opts Options) string {
	if s == "" {
		return ""
	}

	// NFKC folds full-width and compatibility forms (e.g. "ＣＳＥ") to ASCII.
	s = norm.NFKC.String(s)
	s = strings.TrimSpace(strings.ToLower(s))
	s = parenthetical.ReplaceAllString(s, "")

	if opts.PreserveAmpersand {
		s = notAlnumOrAmp.ReplaceAllString(s, " ")
	} else {
		s = notAlnum.ReplaceAllString(s, " ")
	}

	return collapse(s)
}

// Query normalizes a user question for fuzzy matching ('&' stripped).
func Query(s string) string {
	return Normalize(s, Options{})
}

// Key normalizes a stored question into its q_norm dedup key ('&' kept).
func Key(s string) string {
	return Normalize(s, Options{PreserveAmpersand: true})
}

// RuleForm prepares a question for keyword substring matching.
// Unlike Normalize it keeps parentheses' contents, word characters of any
// script and '&'; everything else becomes a space.
func RuleForm(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(norm.NFKC.String(s))
	s = notWordOrAmp.ReplaceAllString(s, " ")
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}
