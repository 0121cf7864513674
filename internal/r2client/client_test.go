package r2client

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gat-college/faqbot/internal/config"
)

const testBucket = "faqbot-archive"

type fakeObject struct {
	data []byte
	etag string
}

// fakeR2 is a minimal path-style S3 endpoint with conditional PUTs.
type fakeR2 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	puts    int
}

func (f *fakeR2) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/"+testBucket+"/")
	obj, exists := f.objects[key]

	switch r.Method {
	case http.MethodPut:
		if r.Header.Get("If-None-Match") == "*" && exists {
			writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		if m := r.Header.Get("If-Match"); m != "" && (!exists || m != `"`+obj.etag+`"`) {
			writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		data, _ := io.ReadAll(r.Body)
		sum := md5.Sum(data)
		etag := hex.EncodeToString(sum[:])
		f.objects[key] = fakeObject{data: data, etag: etag}
		f.puts++
		w.Header().Set("ETag", `"`+etag+`"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if !exists {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("ETag", `"`+obj.etag+`"`)
		_, _ = w.Write(obj.data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>`+code+`</Message></Error>`)
}

func newTestClient(t *testing.T) (*Client, *fakeR2) {
	t.Helper()

	fake := &fakeR2{objects: map[string]fakeObject{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), config.R2Config{
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		BucketName:      testBucket,
	})
	require.NoError(t, err)
	return client, fake
}

func TestNew_RequiresAllFields(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.R2Config{Endpoint: "https://r2.example.com", BucketName: "b"})
	assert.Error(t, err)
}

func TestClient_UploadDownload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, _ := newTestClient(t)
	assert.Equal(t, testBucket, client.Bucket())

	etag, err := client.Upload(ctx, "dedup/archive.jsonl.zst", strings.NewReader("payload"), "application/zstd")
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
	assert.NotContains(t, etag, `"`)

	body, gotETag, err := client.Download(ctx, "dedup/archive.jsonl.zst")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, etag, gotETag)

	_, _, err = client.Download(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ConditionalPuts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, _ := newTestClient(t)

	created, etag, err := client.PutIfAbsent(ctx, "k", strings.NewReader("v1"), "")
	require.NoError(t, err)
	assert.True(t, created)

	created, _, err = client.PutIfAbsent(ctx, "k", strings.NewReader("v2"), "")
	require.NoError(t, err)
	assert.False(t, created)

	updated, _, err := client.PutIfMatch(ctx, "k", strings.NewReader("v3"), "stale", "")
	require.NoError(t, err)
	assert.False(t, updated)

	updated, newETag, err := client.PutIfMatch(ctx, "k", strings.NewReader("v3"), etag, "")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NotEqual(t, etag, newETag)

	require.NoError(t, client.Delete(ctx, "k"))
	_, _, err = client.Download(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, _ := newTestClient(t)

	first := NewLock(client, "locks/dedup", "dedup", time.Minute)
	second := NewLock(client, "locks/dedup", "dedup", time.Minute)
	assert.NotEqual(t, first.OwnerID(), second.OwnerID())

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "lease still valid")

	// releasing someone else's lock is a no-op
	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, second.Release(ctx))
	require.NoError(t, second.Release(ctx), "releasing a missing lock is fine")
}

func TestLock_TakesOverExpiredLease(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, _ := newTestClient(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := NewLock(client, "locks/dedup", "dedup", time.Minute)
	stale.now = func() time.Time { return now }
	ok, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	later := NewLock(client, "locks/dedup", "dedup", time.Minute)
	later.now = func() time.Time { return now.Add(2 * time.Minute) }
	ok, err = later.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// the old owner no longer holds it
	require.NoError(t, stale.Release(ctx))
	body, _, err := client.Download(ctx, "locks/dedup")
	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Contains(t, string(data), later.OwnerID())
}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	input := strings.Repeat(`{"question":"Is there a canteen?","answer":"Yes."}`+"\n", 500)

	var compressed bytes.Buffer
	require.NoError(t, Compress(&compressed, strings.NewReader(input)))
	assert.Less(t, compressed.Len(), len(input))

	var out bytes.Buffer
	require.NoError(t, Decompress(&out, &compressed))
	assert.Equal(t, input, out.String())
}

func TestDecompress_InvalidData(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Error(t, Decompress(&out, strings.NewReader("not zstd at all")))
}
