package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/gat-college/faqbot/internal/errors"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/sliceutil"
	"github.com/gat-college/faqbot/internal/storage"
	"github.com/gat-college/faqbot/internal/textnorm"
)

// Defaults applied to dataset rows that leave a field empty.
const (
	DefaultCategory = "general"
	DefaultSource   = "seed"
)

// Report summarizes a seed run.
type Report struct {
	FAQs        storage.UpsertResult `json:"faqs"`
	Departments storage.UpsertResult `json:"departments"`
	Contacts    storage.UpsertResult `json:"contacts"`

	// SkippedFAQs counts entries with an empty question or answer.
	SkippedFAQs int `json:"skipped_faqs"`
	// MergedFAQs counts entries dropped because a later entry had the same key.
	MergedFAQs int `json:"merged_faqs"`
	// IndexWarning is set when the unique index could not be created
	// because the store already holds duplicates.
	IndexWarning string `json:"index_warning,omitempty"`
}

// Seeder upserts a Dataset. Running it twice leaves the store unchanged
// apart from updated_at.
type Seeder struct {
	store storage.Maintainer
	log   *logger.Logger
	now   func() time.Time
}

// NewSeeder returns a seeder writing to store.
func NewSeeder(store storage.Maintainer, log *logger.Logger) *Seeder {
	return &Seeder{
		store: store,
		log:   log.WithModule("seed"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Seed ensures indexes and upserts FAQs, departments and contacts.
func (s *Seeder) Seed(ctx context.Context, ds *Dataset) (Report, error) {
	var report Report
	now := s.now()

	if err := s.store.EnsureIndexes(ctx); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateKey) {
			return report, fmt.Errorf("ensure indexes: %w", err)
		}
		// upserts still match on q_norm; dedup repairs the rest
		report.IndexWarning = "duplicate q_norm values exist, run faqctl dedup"
		s.log.WithError(err).Warn("Unique index not created")
	}

	faqs, skipped := PrepareFAQs(ds.FAQs)
	report.SkippedFAQs = skipped
	merged := sliceutil.DeduplicateLast(faqs, func(f storage.FAQ) string { return f.QNorm })
	report.MergedFAQs = len(faqs) - len(merged)

	var err error
	if report.FAQs, err = s.store.UpsertFAQs(ctx, merged, now); err != nil {
		return report, fmt.Errorf("upsert faqs: %w", err)
	}
	if report.Departments, err = s.store.UpsertDepartments(ctx, PrepareDepartments(ds.Departments), now); err != nil {
		return report, fmt.Errorf("upsert departments: %w", err)
	}
	if report.Contacts, err = s.store.UpsertContacts(ctx, PrepareContacts(ds.Contacts), now); err != nil {
		return report, fmt.Errorf("upsert contacts: %w", err)
	}

	s.log.WithFields(map[string]any{
		"faqs_upserted": report.FAQs.Upserted,
		"faqs_matched":  report.FAQs.Matched,
		"faqs_skipped":  report.SkippedFAQs,
		"departments":   len(ds.Departments),
		"contacts":      len(ds.Contacts),
	}).Info("Seed complete")
	return report, nil
}

// PrepareFAQs trims entries, drops those missing a question or answer,
// computes q_norm and fills defaults. It returns the rows and the number
// skipped.
func PrepareFAQs(entries []FAQEntry) ([]storage.FAQ, int) {
	out := make([]storage.FAQ, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		q, a := strings.TrimSpace(e.Question), strings.TrimSpace(e.Answer)
		if q == "" || a == "" {
			skipped++
			continue
		}
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, storage.FAQ{
			Question: q,
			Answer:   a,
			QNorm:    textnorm.Key(q),
			Category: orDefault(e.Category, DefaultCategory),
			Tags:     tags,
			Source:   orDefault(e.Source, DefaultSource),
		})
	}
	return out, skipped
}

// PrepareDepartments normalizes aliases with the q_norm rules, drops blank
// and repeated aliases, and skips entries without an id.
func PrepareDepartments(entries []DepartmentEntry) []storage.Department {
	out := make([]storage.Department, 0, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			continue
		}
		aliases := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			if a = textnorm.Key(a); a != "" {
				aliases = append(aliases, a)
			}
		}
		out = append(out, storage.Department{
			DeptID:  id,
			Name:    strings.TrimSpace(e.Name),
			Aliases: sliceutil.Deduplicate(aliases, func(s string) string { return s }),
			HOD:     e.HOD,
			Address: e.Address,
			MapsURL: e.MapsURL,
			Notes:   e.Notes,
			Source:  DefaultSource,
		})
	}
	return sliceutil.DeduplicateLast(out, func(d storage.Department) string { return d.DeptID })
}

// PrepareContacts lowercases roles and skips entries without one.
func PrepareContacts(entries []ContactEntry) []storage.Contact {
	out := make([]storage.Contact, 0, len(entries))
	for _, e := range entries {
		role := strings.ToLower(strings.TrimSpace(e.Role))
		if role == "" {
			continue
		}
		out = append(out, storage.Contact{
			Role:  role,
			Name:  strings.TrimSpace(e.Name),
			Email: strings.TrimSpace(e.Email),
			Phone: strings.TrimSpace(e.Phone),
		})
	}
	return sliceutil.DeduplicateLast(out, func(c storage.Contact) string { return c.Role })
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
