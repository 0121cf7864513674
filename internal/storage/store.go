// Package storage persists FAQs, departments and contacts.
//
// Three backends implement the same interfaces: MongoDB (the production
// store), SQLite (single-node deployments) and an in-memory store used when
// nothing else is configured or reachable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gat-college/faqbot/internal/config"
	apperrors "github.com/gat-college/faqbot/internal/errors"
	"github.com/gat-college/faqbot/internal/logger"
)

// Backend names reported by Store.Backend.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = apperrors.ErrNotFound

// ErrNoPersistentStore is returned by Open when a persistent backend is
// required but none is configured or reachable.
var ErrNoPersistentStore = errors.New("no persistent store configured")

// FAQReader is the read path used by the FAQ snapshot refresher.
type FAQReader interface {
	// ListFAQs returns every FAQ with Question and Answer filled,
	// in the store's natural order.
	ListFAQs(ctx context.Context) ([]FAQ, error)
}

// Store is what the HTTP server needs.
type Store interface {
	FAQReader

	// AdminContact returns the contact with role "admin" or ErrNotFound.
	AdminContact(ctx context.Context) (Contact, error)
	Ping(ctx context.Context) error
	Backend() string
	Close(ctx context.Context) error
}

// Maintainer is the write path used by faqctl.
type Maintainer interface {
	Store

	// EnsureIndexes creates the unique q_norm and dept_id indexes and the
	// aliases index. It fails while duplicate q_norm values exist.
	EnsureIndexes(ctx context.Context) error

	// UpsertFAQs matches on QNorm. Existing rows keep their created_at.
	UpsertFAQs(ctx context.Context, faqs []FAQ, now time.Time) (UpsertResult, error)
	UpsertDepartments(ctx context.Context, depts []Department, now time.Time) (UpsertResult, error)
	UpsertContacts(ctx context.Context, contacts []Contact, now time.Time) (UpsertResult, error)

	// FillMissingNorms sets q_norm = norm(question) where it is missing or
	// empty and returns how many rows changed.
	FillMissingNorms(ctx context.Context, norm func(string) string) (int, error)

	// DuplicateGroups lists q_norm values held by more than one FAQ,
	// largest group first.
	DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error)

	// FAQsByNorm returns the group's FAQs oldest first (created_at, then id).
	FAQsByNorm(ctx context.Context, qNorm string) ([]FAQ, error)

	// BackupFAQs copies the rows with the given ids into the backup
	// collection. Rows already backed up are skipped.
	BackupFAQs(ctx context.Context, ids []string) (int, error)

	DeleteFAQs(ctx context.Context, ids []string) (int, error)
}

// OpenOptions tunes backend selection.
type OpenOptions struct {
	// RequirePersistent makes Open fail instead of falling back to memory.
	RequirePersistent bool
}

// Open selects a backend: MongoDB when MONGO_URL is set, SQLite when
// SQLITE_PATH is set, memory otherwise. A Mongo connection failure falls
// back to SQLite or memory unless RequirePersistent is set.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, opts OpenOptions) (Maintainer, error) {
	log = log.WithModule("storage")

	if cfg.MongoURL != "" {
		store, err := NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err == nil {
			log.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
			return store, nil
		}
		if opts.RequirePersistent && cfg.SQLitePath == "" {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		log.WithError(err).Warn("MongoDB connection failed, using fallback store")
	}

	if cfg.SQLitePath != "" {
		store, err := NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		log.WithField("path", cfg.SQLitePath).Info("Using SQLite store")
		return store, nil
	}

	if opts.RequirePersistent {
		return nil, ErrNoPersistentStore
	}
	log.Warn("No persistent store configured, using in-memory store")
	return NewMemory(), nil
}
