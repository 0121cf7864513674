package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/gat-college/faqbot/internal/errors"
)

// Memory is a process-local store. It backs the server when no database is
// configured and serves as a fake in tests.
type Memory struct {
	mu      sync.RWMutex
	nextID  int
	faqs    []FAQ
	backup  map[string]FAQ
	depts   map[string]Department
	contact map[string]Contact
}

var _ Maintainer = (*Memory)(nil)

// NewMemory returns a store holding faqs in the given order.
func NewMemory(faqs ...FAQ) *Memory {
	m := &Memory{
		backup:  make(map[string]FAQ),
		depts:   make(map[string]Department),
		contact: make(map[string]Contact),
	}
	for _, f := range faqs {
		m.insertLocked(f)
	}
	return m
}

func (m *Memory) insertLocked(f FAQ) {
	m.nextID++
	if f.ID == "" {
		f.ID = strconv.Itoa(m.nextID)
	}
	f.Tags = slices.Clone(f.Tags)
	m.faqs = append(m.faqs, f)
}

// ListFAQs implements FAQReader.
func (m *Memory) ListFAQs(ctx context.Context) ([]FAQ, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FAQ, len(m.faqs))
	for i, f := range m.faqs {
		out[i] = FAQ{Question: f.Question, Answer: f.Answer}
	}
	return out, nil
}

// AdminContact implements Store.
func (m *Memory) AdminContact(ctx context.Context) (Contact, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contact[RoleAdmin]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

// Ping implements Store.
func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// Backend implements Store.
func (m *Memory) Backend() string { return BackendMemory }

// Close implements Store.
func (m *Memory) Close(context.Context) error { return nil }

// EnsureIndexes fails while duplicate q_norm values exist, like the
// database backends do.
func (m *Memory) EnsureIndexes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool, len(m.faqs))
	for _, f := range m.faqs {
		if f.QNorm == "" {
			continue
		}
		if seen[f.QNorm] {
			return fmt.Errorf("%w: unique index on q_norm: duplicate value %q", apperrors.ErrDuplicateKey, f.QNorm)
		}
		seen[f.QNorm] = true
	}
	return nil
}

// UpsertFAQs implements Maintainer.
func (m *Memory) UpsertFAQs(ctx context.Context, faqs []FAQ, now time.Time) (UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return UpsertResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var res UpsertResult
	for _, f := range faqs {
		idx := slices.IndexFunc(m.faqs, func(e FAQ) bool { return e.QNorm == f.QNorm })
		if idx >= 0 {
			cur := &m.faqs[idx]
			res.Matched++
			if cur.Question != f.Question || cur.Answer != f.Answer || cur.Category != f.Category ||
				cur.Source != f.Source || !slices.Equal(cur.Tags, f.Tags) {
				res.Modified++
			}
			cur.Question, cur.Answer, cur.Category, cur.Source = f.Question, f.Answer, f.Category, f.Source
			cur.Tags = slices.Clone(f.Tags)
			cur.UpdatedAt = now
			continue
		}
		f.ID = ""
		f.CreatedAt, f.UpdatedAt = now, now
		m.insertLocked(f)
		res.Upserted++
	}
	return res, nil
}

// UpsertDepartments implements Maintainer.
func (m *Memory) UpsertDepartments(ctx context.Context, depts []Department, _ time.Time) (UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return UpsertResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var res UpsertResult
	for _, d := range depts {
		if _, ok := m.depts[d.DeptID]; ok {
			res.Matched++
			res.Modified++
		} else {
			res.Upserted++
		}
		d.Aliases = slices.Clone(d.Aliases)
		m.depts[d.DeptID] = d
	}
	return res, nil
}

// UpsertContacts implements Maintainer.
func (m *Memory) UpsertContacts(ctx context.Context, contacts []Contact, _ time.Time) (UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return UpsertResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var res UpsertResult
	for _, c := range contacts {
		if _, ok := m.contact[c.Role]; ok {
			res.Matched++
			res.Modified++
		} else {
			res.Upserted++
		}
		m.contact[c.Role] = c
	}
	return res, nil
}

// Department returns a stored department; used by tests.
func (m *Memory) Department(id string) (Department, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.depts[id]
	return d, ok
}

// FillMissingNorms implements Maintainer.
func (m *Memory) FillMissingNorms(ctx context.Context, norm func(string) string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := range m.faqs {
		if m.faqs[i].QNorm == "" {
			m.faqs[i].QNorm = norm(m.faqs[i].Question)
			n++
		}
	}
	return n, nil
}

// DuplicateGroups implements Maintainer.
func (m *Memory) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	byNorm := make(map[string]*DuplicateGroup)
	var order []string
	for _, f := range m.faqs {
		if f.QNorm == "" {
			continue
		}
		g, ok := byNorm[f.QNorm]
		if !ok {
			g = &DuplicateGroup{QNorm: f.QNorm}
			byNorm[f.QNorm] = g
			order = append(order, f.QNorm)
		}
		g.Count++
		g.IDs = append(g.IDs, f.ID)
	}

	var out []DuplicateGroup
	for _, k := range order {
		if g := byNorm[k]; g.Count > 1 {
			out = append(out, *g)
		}
	}
	slices.SortStableFunc(out, func(a, b DuplicateGroup) int { return cmp.Compare(b.Count, a.Count) })
	return out, nil
}

// FAQsByNorm implements Maintainer.
func (m *Memory) FAQsByNorm(ctx context.Context, qNorm string) ([]FAQ, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []FAQ
	for _, f := range m.faqs {
		if f.QNorm == qNorm {
			f.Tags = slices.Clone(f.Tags)
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, compareAge)
	return out, nil
}

// compareAge orders by created_at then numeric id, oldest first.
func compareAge(a, b FAQ) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	ai, aerr := strconv.Atoi(a.ID)
	bi, berr := strconv.Atoi(b.ID)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a.ID, b.ID)
}

// BackupFAQs implements Maintainer.
func (m *Memory) BackupFAQs(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, f := range m.faqs {
		if !slices.Contains(ids, f.ID) {
			continue
		}
		if _, dup := m.backup[f.ID]; dup {
			continue
		}
		m.backup[f.ID] = f
		n++
	}
	return n, nil
}

// BackupLen returns the number of backed-up FAQs; used by tests.
func (m *Memory) BackupLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.backup)
}

// DeleteFAQs implements Maintainer.
func (m *Memory) DeleteFAQs(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.faqs)
	m.faqs = slices.DeleteFunc(m.faqs, func(f FAQ) bool { return slices.Contains(ids, f.ID) })
	return before - len(m.faqs), nil
}

// SetFAQs replaces every FAQ; used by tests that simulate store edits.
func (m *Memory) SetFAQs(faqs ...FAQ) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faqs = nil
	for _, f := range faqs {
		m.insertLocked(f)
	}
}
