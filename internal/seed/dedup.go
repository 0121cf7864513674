package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/r2client"
	"github.com/gat-college/faqbot/internal/storage"
	"github.com/gat-college/faqbot/internal/textnorm"
)

// ArchivePrefix is the object key prefix for dedup archives.
const ArchivePrefix = "faqbot/dedup/"

// Uploader stores an archive object. *r2client.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// DedupOptions tunes a dedup run.
type DedupOptions struct {
	// DryRun backs up and reports but deletes nothing and leaves indexes alone.
	DryRun bool
}

// GroupPlan is what happens to one duplicate group.
type GroupPlan struct {
	QNorm  string   `json:"q_norm"`
	Keep   string   `json:"keep"`
	Delete []string `json:"delete"`
}

// DedupReport summarizes a dedup run.
type DedupReport struct {
	Filled     int         `json:"filled"`
	Groups     []GroupPlan `json:"groups"`
	BackedUp   int         `json:"backed_up"`
	Deleted    int         `json:"deleted"`
	ArchiveKey string      `json:"archive_key,omitempty"`
	Indexed    bool        `json:"indexed"`
	DryRun     bool        `json:"dry_run"`
}

// Deduper collapses FAQs sharing a q_norm to the oldest one so the unique
// index can be created.
type Deduper struct {
	store   storage.Maintainer
	archive Uploader
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewDeduper returns a deduper. archive may be nil to skip the R2 upload.
func NewDeduper(store storage.Maintainer, archive Uploader, log *logger.Logger) *Deduper {
	return &Deduper{
		store:   store,
		archive: archive,
		log:     log.WithModule("dedup"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Run fills missing q_norm values, backs up every duplicate group, deletes
// all but the oldest row of each group and creates the unique index.
func (d *Deduper) Run(ctx context.Context, opts DedupOptions) (DedupReport, error) {
	report := DedupReport{DryRun: opts.DryRun, Groups: []GroupPlan{}}

	filled, err := d.store.FillMissingNorms(ctx, textnorm.Key)
	if err != nil {
		return report, fmt.Errorf("fill missing q_norm: %w", err)
	}
	report.Filled = filled

	groups, err := d.store.DuplicateGroups(ctx)
	if err != nil {
		return report, fmt.Errorf("find duplicates: %w", err)
	}

	var archived []storage.FAQ
	for _, g := range groups {
		faqs, err := d.store.FAQsByNorm(ctx, g.QNorm)
		if err != nil {
			return report, fmt.Errorf("load group %q: %w", g.QNorm, err)
		}
		if len(faqs) < 2 {
			continue
		}

		ids := make([]string, len(faqs))
		for i, f := range faqs {
			ids[i] = f.ID
		}
		n, err := d.store.BackupFAQs(ctx, ids)
		if err != nil {
			return report, fmt.Errorf("back up group %q: %w", g.QNorm, err)
		}
		report.BackedUp += n
		archived = append(archived, faqs...)

		report.Groups = append(report.Groups, GroupPlan{QNorm: g.QNorm, Keep: ids[0], Delete: ids[1:]})
		d.log.WithFields(map[string]any{
			"q_norm": g.QNorm,
			"keep":   ids[0],
			"delete": len(ids) - 1,
		}).Info("Duplicate group")
	}

	if d.archive != nil && len(archived) > 0 {
		key, err := d.upload(ctx, archived)
		if err != nil {
			return report, err
		}
		report.ArchiveKey = key
	}

	if opts.DryRun {
		d.log.WithField("groups", len(report.Groups)).Info("Dry run, nothing deleted")
		return report, nil
	}

	for _, g := range report.Groups {
		n, err := d.store.DeleteFAQs(ctx, g.Delete)
		if err != nil {
			return report, fmt.Errorf("delete duplicates of %q: %w", g.QNorm, err)
		}
		report.Deleted += n
	}

	if err := d.store.EnsureIndexes(ctx); err != nil {
		return report, fmt.Errorf("create unique index: %w", err)
	}
	report.Indexed = true

	d.log.WithFields(map[string]any{
		"filled":    report.Filled,
		"groups":    len(report.Groups),
		"backed_up": report.BackedUp,
		"deleted":   report.Deleted,
	}).Info("Dedup complete")
	return report, nil
}

// ArchiveKey returns the object key for an archive made at t.
func ArchiveKey(t time.Time, id string) string {
	return ArchivePrefix + t.UTC().Format("20060102T150405Z") + "-" + id + ".jsonl.zst"
}

func (d *Deduper) upload(ctx context.Context, faqs []storage.FAQ) (string, error) {
	var body bytes.Buffer
	if err := WriteArchive(&body, faqs); err != nil {
		return "", err
	}

	key := ArchiveKey(d.now(), d.newID())
	if _, err := d.archive.Upload(ctx, key, &body, "application/zstd"); err != nil {
		return "", fmt.Errorf("upload archive: %w", err)
	}
	d.log.WithField("key", key).WithField("rows", len(faqs)).Info("Uploaded dedup archive")
	return key, nil
}

// WriteArchive writes faqs to w as zstd-compressed JSON lines.
func WriteArchive(w io.Writer, faqs []storage.FAQ) error {
	pr, pw := io.Pipe()
	go func() {
		enc := json.NewEncoder(pw)
		for _, f := range faqs {
			if err := enc.Encode(f); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()

	if err := r2client.Compress(w, pr); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// ReadArchive decodes an archive written by WriteArchive.
func ReadArchive(r io.Reader) ([]storage.FAQ, error) {
	var raw bytes.Buffer
	if err := r2client.Decompress(&raw, r); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var out []storage.FAQ
	dec := json.NewDecoder(&raw)
	for dec.More() {
		var f storage.FAQ
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}
