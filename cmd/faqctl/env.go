package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/r2client"
	"github.com/gat-college/faqbot/internal/storage"
)

// LockKey is the R2 object guarding maintenance runs.
const LockKey = "faqbot/locks/maintenance"

var errLockHeld = errors.New("another maintenance run holds the lock")

// toolEnv is what every store-touching subcommand needs.
type toolEnv struct {
	cfg   *config.Config
	log   *logger.Logger
	store storage.Maintainer
	r2    *r2client.Client // nil when R2 is not configured
}

func openEnv(ctx context.Context, logOut io.Writer) (*toolEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(cfg.LogLevel, logOut).WithField("service", "faqctl")

	store, err := storage.Open(ctx, cfg, log, storage.OpenOptions{RequirePersistent: true})
	if err != nil {
		if errors.Is(err, storage.ErrNoPersistentStore) {
			return nil, fmt.Errorf("%w: set MONGO_URL or SQLITE_PATH", err)
		}
		return nil, err
	}

	env := &toolEnv{cfg: cfg, log: log, store: store}
	if cfg.R2.Enabled() {
		client, err := r2client.New(ctx, cfg.R2)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("r2: %w", err)
		}
		env.r2 = client
	}
	return env, nil
}

func (e *toolEnv) Close(ctx context.Context) {
	if err := e.store.Close(ctx); err != nil {
		e.log.WithError(err).Warn("Store close failed")
	}
}

// withLock runs fn while holding the R2 maintenance lock. Without R2 it
// runs fn directly.
func (e *toolEnv) withLock(ctx context.Context, purpose string, fn func(context.Context) error) error {
	if e.r2 == nil {
		return fn(ctx)
	}

	lock := r2client.NewLock(e.r2, LockKey, purpose, config.ToolOperation)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errLockHeld
	}
	e.log.WithField("owner", lock.OwnerID()).WithField("purpose", purpose).Debug("Maintenance lock acquired")

	defer func() {
		// release even when ctx already expired
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.StoreConnect)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			e.log.WithError(err).Warn("Maintenance lock release failed")
		}
	}()
	return fn(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
