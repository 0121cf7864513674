package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gat-college/faqbot/internal/seed"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

// useSQLite points the tool at a fresh database and clears every other
// store and R2 setting.
func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "faq.db"))
	t.Setenv("MONGO_URL", "")
	t.Setenv("R2_ENDPOINT", "")
	t.Setenv("R2_ACCESS_KEY_ID", "")
	t.Setenv("R2_SECRET_ACCESS_KEY", "")
	t.Setenv("R2_BUCKET_NAME", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"service": "faqbot"`)
}

func TestSeedThenDedup(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "seed")
	require.NoError(t, err)
	var report seed.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 54, report.FAQs.Upserted)
	assert.Equal(t, 13, report.Departments.Upserted)
	assert.Equal(t, 1, report.Contacts.Upserted)
	assert.Empty(t, report.IndexWarning)

	out, err = run(t, "seed")
	require.NoError(t, err)
	report = seed.Report{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Zero(t, report.FAQs.Upserted)
	assert.Equal(t, 54, report.FAQs.Matched)

	out, err = run(t, "dedup", "--dry-run")
	require.NoError(t, err)
	var dedup seed.DedupReport
	require.NoError(t, json.Unmarshal([]byte(out), &dedup))
	assert.True(t, dedup.DryRun)
	assert.Empty(t, dedup.Groups)
	assert.Zero(t, dedup.Deleted)
}

func TestSeedFromFile(t *testing.T) {
	useSQLite(t)

	path := filepath.Join(t.TempDir(), "faqs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
faqs:
  - question: Is there a gym?
    answer: Yes, near the hostel.
  - question: ""
    answer: skipped
`), 0o600))

	out, err := run(t, "seed", "--file", path)
	require.NoError(t, err)
	var report seed.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.FAQs.Upserted)
	assert.Equal(t, 1, report.SkippedFAQs)
}

func TestSeed_RequiresPersistentStore(t *testing.T) {
	useSQLite(t)
	t.Setenv("SQLITE_PATH", "")

	_, err := run(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQLITE_PATH")
}

func TestSeed_MissingFile(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "seed", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
