package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// LockInfo is the body of a lock object.
type LockInfo struct {
	Owner     string    `json:"owner"`
	Purpose   string    `json:"purpose,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock is a lease stored as an R2 object and claimed with conditional
// writes. An expired lease may be taken over by another owner.
type Lock struct {
	client  *Client
	key     string
	purpose string
	ttl     time.Duration
	ownerID string
	etag    string
	now     func() time.Time
}

// NewLock returns an unheld lock with a random owner ID.
func NewLock(client *Client, key, purpose string, ttl time.Duration) *Lock {
	return &Lock{
		client:  client,
		key:     key,
		purpose: purpose,
		ttl:     ttl,
		ownerID: uuid.NewString(),
		now:     time.Now,
	}
}

// Acquire reports true when this owner now holds the lock and false when
// someone else holds an unexpired lease.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	created, etag, err := l.client.PutIfAbsent(ctx, l.key, l.body(), "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	info, oldETag, err := l.read(ctx)
	if errors.Is(err, ErrNotFound) {
		// released between our two calls
		return l.Acquire(ctx)
	}
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if info != nil && l.now().Before(info.ExpiresAt) {
		return false, nil
	}

	taken, newETag, err := l.client.PutIfMatch(ctx, l.key, l.body(), oldETag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: take over: %w", err)
	}
	if taken {
		l.etag = newETag
	}
	return taken, nil
}

// Release deletes the lock if this owner still holds it.
func (l *Lock) Release(ctx context.Context) error {
	info, _, err := l.read(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if info != nil && info.Owner != l.ownerID {
		return nil
	}
	l.etag = ""
	return l.client.Delete(ctx, l.key)
}

// OwnerID identifies this lock instance.
func (l *Lock) OwnerID() string {
	return l.ownerID
}

func (l *Lock) body() io.Reader {
	data, _ := json.Marshal(LockInfo{
		Owner:     l.ownerID,
		Purpose:   l.purpose,
		ExpiresAt: l.now().Add(l.ttl),
	})
	return bytes.NewReader(data)
}

// read returns a nil info for an unreadable lock body, which counts as expired.
func (l *Lock) read(ctx context.Context) (*LockInfo, string, error) {
	body, etag, err := l.client.Download(ctx, l.key)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read lock: %w", err)
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, etag, nil
	}
	return &info, etag, nil
}
