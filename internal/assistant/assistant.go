// Package assistant answers free-text college questions with an LLM.
//
// Answers are memoized per trimmed question. Calls run on a bounded worker
// pool, identical in-flight questions share one call, and the caller waits
// at most Timeout. A call the caller stopped waiting for keeps running on a
// detached context and still fills the memo when it finishes.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/gat-college/faqbot/internal/ctxutil"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/sentry"
)

// Fixed user-facing texts.
const (
	TimeoutMessage       = "Sorry, the AI is taking too long right now."
	ProviderErrorMessage = "Sorry, I couldn't generate an answer right now."

	promptPrefix = "Answer this as GAT college assistant:\n"
)

// Status of an Ask.
type Status string

const (
	StatusOK            Status = "ok"
	StatusTimeout       Status = "timeout"
	StatusProviderError Status = "provider_error"
)

// Result is the outcome of an Ask. Text is always user-presentable.
type Result struct {
	Text   string
	Status Status
	Cached bool
}

var errNoGenerator = errors.New("no LLM generator configured")

// Generator produces raw model output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Memo stores answers by key.
type Memo interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Recorder receives invoker metrics.
type Recorder interface {
	RecordAIRequest(status string, cached bool, seconds float64)
	RecordAISingleflightShared()
}

// Options tunes the invoker.
type Options struct {
	// Timeout is how long Ask waits for an answer.
	Timeout time.Duration
	// CallDeadline bounds a call after Ask stopped waiting.
	CallDeadline time.Duration
	// Workers is the number of concurrent provider calls.
	Workers int
	// CacheErrors memoizes ProviderErrorMessage for failed questions.
	CacheErrors bool
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:      4 * time.Second,
		CallDeadline: 60 * time.Second,
		Workers:      6,
		CacheErrors:  true,
	}
}

// Invoker is safe for concurrent use.
type Invoker struct {
	gen     Generator
	memo    Memo
	opts    Options
	log     *logger.Logger
	metrics Recorder

	sem      *semaphore.Weighted
	group    singleflight.Group
	inflight atomic.Int64
}

// New returns an invoker. gen may be nil, in which case every question
// degrades to ProviderErrorMessage. metrics may be nil.
func New(gen Generator, memo Memo, opts Options, log *logger.Logger, metrics Recorder) *Invoker {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.CallDeadline < opts.Timeout {
		opts.CallDeadline = max(def.CallDeadline, opts.Timeout)
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	return &Invoker{
		gen:     gen,
		memo:    memo,
		opts:    opts,
		log:     log.WithModule("assistant"),
		metrics: metrics,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
	}
}

// Ask never fails: errors and timeouts map to fixed texts.
func (i *Invoker) Ask(ctx context.Context, prompt string) Result {
	start := time.Now()
	key := strings.TrimSpace(prompt)

	if text, ok := i.memo.Get(ctx, key); ok {
		return i.done(Result{Text: text, Status: StatusOK, Cached: true}, start)
	}

	// the call outlives this request if we stop waiting
	detached := ctxutil.PreserveTracing(ctx)
	ch := i.group.DoChan(key, func() (any, error) {
		return i.call(detached, key), nil
	})

	timer := time.NewTimer(i.opts.Timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Shared && i.metrics != nil {
			i.metrics.RecordAISingleflightShared()
		}
		return i.done(res.Val.(Result), start)
	case <-timer.C:
	case <-ctx.Done():
	}

	i.log.WithField("timeout_ms", i.opts.Timeout.Milliseconds()).
		Warn("AI answer timed out, call continues in background")
	return i.done(Result{Text: TimeoutMessage, Status: StatusTimeout}, start)
}

// call runs on the singleflight goroutine, where a panic would take the
// process down, so it is recovered here.
func (i *Invoker) call(ctx context.Context, key string) (res Result) {
	i.inflight.Add(1)
	defer i.inflight.Add(-1)
	defer func() {
		if rec := recover(); rec != nil {
			i.log.WithFields(map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			}).Error("Panic in AI provider call")
			sentry.CapturePanic(ctx, rec)
			res = Result{Text: ProviderErrorMessage, Status: StatusProviderError}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, i.opts.CallDeadline)
	defer cancel()

	text, err := i.generate(ctx, key)
	if err != nil {
		i.log.WithError(err).Warn("AI provider call failed")
		if i.opts.CacheErrors {
			i.memo.Set(ctx, key, ProviderErrorMessage)
		}
		return Result{Text: ProviderErrorMessage, Status: StatusProviderError}
	}

	i.memo.Set(ctx, key, text)
	return Result{Text: text, Status: StatusOK}
}

func (i *Invoker) generate(ctx context.Context, key string) (string, error) {
	if i.gen == nil {
		return "", errNoGenerator
	}
	if err := i.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer i.sem.Release(1)

	raw, err := i.gen.Generate(ctx, promptPrefix+key)
	if err != nil {
		return "", err
	}
	text := Clean(raw)
	if text == "" {
		return "", errors.New("model returned no usable text")
	}
	return text, nil
}

func (i *Invoker) done(r Result, start time.Time) Result {
	if i.metrics != nil {
		i.metrics.RecordAIRequest(string(r.Status), r.Cached, time.Since(start).Seconds())
	}
	return r
}

// InFlight returns the number of provider calls currently running,
// including ones no request is waiting for.
func (i *Invoker) InFlight() int64 {
	return i.inflight.Load()
}

// Enabled reports whether a generator is configured.
func (i *Invoker) Enabled() bool {
	return i.gen != nil
}

var markdown = strings.NewReplacer("*", "", "_", "", "#", "", "`", "", ">", "", "~", "")

// Clean strips markdown markers and collapses whitespace.
func Clean(s string) string {
	return strings.Join(strings.Fields(markdown.Replace(s)), " ")
}
