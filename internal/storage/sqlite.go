package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/gat-college/faqbot/internal/errors"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// SQLite is the single-node backend.
type SQLite struct {
	conn *sql.DB
	path string
}

var _ Maintainer = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path and applies
// the schema. ":memory:" is accepted for tests.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
	}
	conn.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{conn: conn, path: path}, nil
}

// Path returns the database file path
func (s *SQLite) Path() string { return s.path }

// Backend implements Store.
func (s *SQLite) Backend() string { return BackendSQLite }

// Ping implements Store.
func (s *SQLite) Ping(ctx context.Context) error { return s.conn.PingContext(ctx) }

// Close implements Store.
func (s *SQLite) Close(context.Context) error { return s.conn.Close() }

// ListFAQs implements FAQReader.
func (s *SQLite) ListFAQs(ctx context.Context) ([]FAQ, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT question, answer FROM faqs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.Question, &f.Answer); err != nil {
			return nil, fmt.Errorf("list faqs: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// AdminContact implements Store.
func (s *SQLite) AdminContact(ctx context.Context) (Contact, error) {
	var c Contact
	var phone sql.NullString
	err := s.conn.QueryRowContext(ctx,
		`SELECT role, name, email, phone FROM contacts WHERE role = ?`, RoleAdmin,
	).Scan(&c.Role, &c.Name, &c.Email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, fmt.Errorf("admin contact: %w", err)
	}
	c.Phone = phone.String
	return c, nil
}

// EnsureIndexes implements Maintainer.
func (s *SQLite) EnsureIndexes(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, ensureIndexesSQL); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: ensure indexes: %w", apperrors.ErrDuplicateKey, err)
		}
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

// UpsertFAQs implements Maintainer.
func (s *SQLite) UpsertFAQs(ctx context.Context, faqs []FAQ, now time.Time) (UpsertResult, error) {
	var res UpsertResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, f := range faqs {
			tags, err := json.Marshal(nonNil(f.Tags))
			if err != nil {
				return err
			}

			var (
				id                                 int64
				question, answer, category, source string
				curTags                            string
			)
			err = tx.QueryRowContext(ctx, `
				SELECT id, question, answer, category, tags, source FROM faqs
				WHERE q_norm = ? ORDER BY created_at, id LIMIT 1`, f.QNorm,
			).Scan(&id, &question, &answer, &category, &curTags, &source)

			switch {
			case errors.Is(err, sql.ErrNoRows):
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO faqs (question, answer, q_norm, category, tags, source, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					f.Question, f.Answer, f.QNorm, f.Category, string(tags), f.Source,
					toMillis(now), toMillis(now),
				); err != nil {
					return fmt.Errorf("insert %q: %w", f.QNorm, err)
				}
				res.Upserted++
			case err != nil:
				return fmt.Errorf("lookup %q: %w", f.QNorm, err)
			default:
				res.Matched++
				if question != f.Question || answer != f.Answer || category != f.Category ||
					source != f.Source || curTags != string(tags) {
					res.Modified++
				}
				if _, err := tx.ExecContext(ctx, `
					UPDATE faqs SET question = ?, answer = ?, category = ?, tags = ?, source = ?, updated_at = ?
					WHERE id = ?`,
					f.Question, f.Answer, f.Category, string(tags), f.Source, toMillis(now), id,
				); err != nil {
					return fmt.Errorf("update %q: %w", f.QNorm, err)
				}
			}
		}
		return nil
	})
	return res, err
}

// UpsertDepartments implements Maintainer.
func (s *SQLite) UpsertDepartments(ctx context.Context, depts []Department, now time.Time) (UpsertResult, error) {
	var res UpsertResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, d := range depts {
			exists, err := rowExists(ctx, tx, `SELECT 1 FROM departments WHERE dept_id = ?`, d.DeptID)
			if err != nil {
				return err
			}
			if exists {
				res.Matched++
				res.Modified++
			} else {
				res.Upserted++
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO departments (dept_id, name, hod_name, hod_email, hod_phone, hod_profile_url,
					address, maps_url, notes, source, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(dept_id) DO UPDATE SET
					name = excluded.name,
					hod_name = excluded.hod_name,
					hod_email = excluded.hod_email,
					hod_phone = excluded.hod_phone,
					hod_profile_url = excluded.hod_profile_url,
					address = excluded.address,
					maps_url = excluded.maps_url,
					notes = excluded.notes,
					source = excluded.source,
					updated_at = excluded.updated_at`,
				d.DeptID, d.Name, d.HOD.Name, d.HOD.Email, d.HOD.Phone, d.HOD.ProfileURL,
				d.Address, d.MapsURL, d.Notes, d.Source, toMillis(now), toMillis(now),
			); err != nil {
				return fmt.Errorf("upsert department %q: %w", d.DeptID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM department_aliases WHERE dept_id = ?`, d.DeptID); err != nil {
				return fmt.Errorf("reset aliases %q: %w", d.DeptID, err)
			}
			for i, alias := range d.Aliases {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO department_aliases (dept_id, alias, position) VALUES (?, ?, ?)`,
					d.DeptID, alias, i,
				); err != nil {
					return fmt.Errorf("insert alias %q: %w", alias, err)
				}
			}
		}
		return nil
	})
	return res, err
}

// DepartmentAliases returns a department's aliases in dataset order.
func (s *SQLite) DepartmentAliases(ctx context.Context, deptID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT alias FROM department_aliases WHERE dept_id = ? ORDER BY position`, deptID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertContacts implements Maintainer.
func (s *SQLite) UpsertContacts(ctx context.Context, contacts []Contact, now time.Time) (UpsertResult, error) {
	var res UpsertResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range contacts {
			exists, err := rowExists(ctx, tx, `SELECT 1 FROM contacts WHERE role = ?`, c.Role)
			if err != nil {
				return err
			}
			if exists {
				res.Matched++
				res.Modified++
			} else {
				res.Upserted++
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO contacts (role, name, email, phone, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(role) DO UPDATE SET
					name = excluded.name,
					email = excluded.email,
					phone = excluded.phone,
					updated_at = excluded.updated_at`,
				c.Role, c.Name, c.Email, c.Phone, toMillis(now), toMillis(now),
			); err != nil {
				return fmt.Errorf("upsert contact %q: %w", c.Role, err)
			}
		}
		return nil
	})
	return res, err
}

// FillMissingNorms implements Maintainer.
func (s *SQLite) FillMissingNorms(ctx context.Context, norm func(string) string) (int, error) {
	n := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, question FROM faqs WHERE q_norm IS NULL OR q_norm = ''`)
		if err != nil {
			return err
		}
		type pending struct {
			id int64
			q  string
		}
		var todo []pending
		for rows.Next() {
			var p pending
			if err := rows.Scan(&p.id, &p.q); err != nil {
				_ = rows.Close()
				return err
			}
			todo = append(todo, p)
		}
		if err := rows.Close(); err != nil {
			return err
		}

		for _, p := range todo {
			if _, err := tx.ExecContext(ctx, `UPDATE faqs SET q_norm = ? WHERE id = ?`, norm(p.q), p.id); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fill q_norm: %w", err)
	}
	return n, nil
}

// DuplicateGroups implements Maintainer.
func (s *SQLite) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT q_norm, COUNT(*) AS n, GROUP_CONCAT(id)
		FROM faqs
		WHERE q_norm IS NOT NULL AND q_norm != ''
		GROUP BY q_norm
		HAVING n > 1
		ORDER BY n DESC, MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("duplicate groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		var ids string
		if err := rows.Scan(&g.QNorm, &g.Count, &ids); err != nil {
			return nil, fmt.Errorf("duplicate groups: %w", err)
		}
		g.IDs = strings.Split(ids, ",")
		out = append(out, g)
	}
	return out, rows.Err()
}

// FAQsByNorm implements Maintainer.
func (s *SQLite) FAQsByNorm(ctx context.Context, qNorm string) ([]FAQ, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, question, answer, q_norm, category, tags, source, created_at, updated_at
		FROM faqs WHERE q_norm = ? ORDER BY created_at, id`, qNorm)
	if err != nil {
		return nil, fmt.Errorf("faqs by norm: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FAQ
	for rows.Next() {
		var (
			f                FAQ
			id               int64
			tags             string
			created, updated int64
		)
		if err := rows.Scan(&id, &f.Question, &f.Answer, &f.QNorm, &f.Category, &tags, &f.Source, &created, &updated); err != nil {
			return nil, fmt.Errorf("faqs by norm: %w", err)
		}
		f.ID = strconv.FormatInt(id, 10)
		_ = json.Unmarshal([]byte(tags), &f.Tags)
		f.CreatedAt, f.UpdatedAt = fromMillis(created), fromMillis(updated)
		out = append(out, f)
	}
	return out, rows.Err()
}

// BackupFAQs implements Maintainer.
func (s *SQLite) BackupFAQs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args, err := idArgs(ids)
	if err != nil {
		return 0, err
	}
	args = append([]any{toMillis(time.Now())}, args...)

	res, err := s.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO faqs_duplicates_backup
			(id, question, answer, q_norm, category, tags, source, created_at, updated_at, backed_up_at)
		SELECT id, question, answer, q_norm, category, tags, source, created_at, updated_at, ?
		FROM faqs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("backup faqs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteFAQs implements Maintainer.
func (s *SQLite) DeleteFAQs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args, err := idArgs(ids)
	if err != nil {
		return 0, err
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM faqs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete faqs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func idArgs(ids []string) (string, []any, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: faq id %q", apperrors.ErrInvalidInput, id)
		}
		args[i] = n
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
