// Package pipeline resolves a chat question to a single answer.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/gat-college/faqbot/internal/assistant"
	"github.com/gat-college/faqbot/internal/faq"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/sentry"
	"github.com/gat-college/faqbot/internal/storage"
)

// Source labels which stage produced an answer.
type Source string

const (
	SourceRule     Source = "rule"
	SourceFAQ      Source = "faq"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceError    Source = "error"
)

// Fixed responses.
const (
	InternalErrorMessage = "An internal error occurred."

	// NoAnswerMessage replaces a matched FAQ whose stored answer is empty,
	// including rows written without an answer field at all.
	NoAnswerMessage = "No answer found."

	fallbackFormat = "Sorry, I can only answer queries related to Global Academy of Technology. Please contact %s at %s."
)

// Result is what /chat returns.
type Result struct {
	Response string `json:"response"`
	Source   Source `json:"source"`
}

// RuleMatcher answers from the curated table.
type RuleMatcher interface {
	Match(question string) (string, bool)
}

// Snapshots provides the live FAQ snapshot.
type Snapshots interface {
	Current() *faq.Snapshot
}

// FAQMatcher finds the best entry in a snapshot.
type FAQMatcher interface {
	BestMatch(s *faq.Snapshot, question string) (faq.Match, bool)
}

// TopicGate decides whether a question is worth an AI call.
type TopicGate interface {
	InDomain(question string) bool
}

// Asker is the AI fallback.
type Asker interface {
	Ask(ctx context.Context, question string) assistant.Result
}

// Recorder receives resolution metrics.
type Recorder interface {
	RecordResolution(source string, seconds float64)
}

// Deps wires a Resolver. Metrics may be nil.
type Deps struct {
	Rules   RuleMatcher
	FAQs    Snapshots
	Matcher FAQMatcher
	Topic   TopicGate
	AI      Asker
	Log     *logger.Logger
	Metrics Recorder
}

// Resolver runs rule → FAQ → topic-gated AI → fallback. It is safe for
// concurrent use.
type Resolver struct {
	rules   RuleMatcher
	faqs    Snapshots
	matcher FAQMatcher
	topic   TopicGate
	ai      Asker
	log     *logger.Logger
	metrics Recorder

	contact atomic.Pointer[storage.Contact]
}

// New returns a Resolver using DefaultContact until SetContact is called.
func New(d Deps) *Resolver {
	r := &Resolver{
		rules:   d.Rules,
		faqs:    d.FAQs,
		matcher: d.Matcher,
		topic:   d.Topic,
		ai:      d.AI,
		log:     d.Log.WithModule("pipeline"),
		metrics: d.Metrics,
	}
	c := DefaultContact()
	r.contact.Store(&c)
	return r
}

// SetContact replaces the contact named in fallback answers.
func (r *Resolver) SetContact(c storage.Contact) {
	r.contact.Store(&c)
}

// Contact returns the contact named in fallback answers.
func (r *Resolver) Contact() storage.Contact {
	return *r.contact.Load()
}

// Resolve never fails and never panics; an internal fault yields
// SourceError with InternalErrorMessage.
func (r *Resolver) Resolve(ctx context.Context, question string) (res Result) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithFields(map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			}).Error("Panic while resolving question")
			sentry.CapturePanic(ctx, rec)
			res = Result{Response: InternalErrorMessage, Source: SourceError}
		}
		if r.metrics != nil {
			r.metrics.RecordResolution(string(res.Source), time.Since(start).Seconds())
		}
	}()

	return r.resolve(ctx, question)
}

func (r *Resolver) resolve(ctx context.Context, question string) Result {
	if answer, ok := r.rules.Match(question); ok {
		return Result{Response: answer, Source: SourceRule}
	}

	if m, ok := r.matcher.BestMatch(r.faqs.Current(), question); ok {
		answer := m.Entry.Answer
		if answer == "" {
			answer = NoAnswerMessage
		}
		r.log.WithFields(map[string]any{
			"score":    m.Score,
			"question": m.Entry.Question,
		}).Debug("FAQ match")
		return Result{Response: answer, Source: SourceFAQ}
	}

	if r.topic.InDomain(question) {
		// degraded answers are still reported as ai
		out := r.ai.Ask(ctx, question)
		return Result{Response: out.Text, Source: SourceAI}
	}

	return r.fallback()
}

func (r *Resolver) fallback() Result {
	c := r.Contact()
	return Result{
		Response: fmt.Sprintf(fallbackFormat, c.Name, c.Email),
		Source:   SourceFallback,
	}
}
