package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailybingo/internal/bingo"
	"dailybingo/internal/store"
)

// openStore picks Postgres when PG_DSN is set and per-session files
// otherwise. The returned func releases the store's resources.
func openStore(ctx context.Context, cfg Config) (store.Store, func(), error) {
	if cfg.PGDSN != "" {
		pg, pool, err := store.OpenPostgres(ctx, cfg.PGDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		logInfo("Persisting sessions to Postgres; boards are reloaded on every request")
		return pg, pool.Close, nil
	}
	logInfo("Persisting sessions to %s", cfg.SessionsDir)
	return store.NewFileStore(cfg.SessionsDir, cfg.SessionTimeout, logger), func() {}, nil
}

// loadPersisted returns the stored board for a session, or nil when there is
// none that can be used. Any other store failure is returned.
func (app *App) loadPersisted(ctx context.Context, sessionID string) (*bingo.State, error) {
	state, err := app.Store.Load(ctx, sessionID)
	switch {
	case err == nil:
		logInfo("%sLoaded stored card for session %s (day %s)", reqPrefix(ctx), sessionID, state.DayKey)
		return state, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	default:
		logError("%sFailed to load session %s: %v", reqPrefix(ctx), sessionID, err)
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
}

// persist writes a board to the store. Failures are logged and returned; a
// cached board stays authoritative for the rest of the process lifetime.
func (app *App) persist(ctx context.Context, sessionID string, state bingo.State) error {
	if err := app.Store.Save(ctx, sessionID, state); err != nil {
		logError("%sFailed to persist session %s: %v", reqPrefix(ctx), sessionID, err)
		return err
	}
	return nil
}

// runCleanup removes expired snapshots every CleanupInterval until ctx ends.
func (app *App) runCleanup(ctx context.Context) {
	if app.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(app.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.cleanupSessions(ctx)
		}
	}
}

// cleanupSessions drops expired snapshots from the store, then evicts
// session entries holding a previous day's board or idle longer than
// CacheIdleTimeout, and sweeps idle rate limiters.
func (app *App) cleanupSessions(ctx context.Context) {
	if n, err := app.Store.Cleanup(ctx, app.SessionTimeout); err != nil {
		logWarn("Session cleanup failed: %v", err)
	} else if n > 0 {
		logInfo("Removed %d expired session snapshot%s", n, plural(n))
	}

	now := app.Now()
	today := app.Controller.DayKey(now)
	app.SessionMutex.Lock()
	evicted := 0
	for id, e := range app.Sessions {
		// refs == 0 means no request holds e.mu or can reach e without this lock.
		if e.refs > 0 {
			continue
		}
		stale := e.state != nil && e.state.DayKey != today
		if stale || app.idle(e.lastSeen, now) {
			delete(app.Sessions, id)
			evicted++
		}
	}
	live := len(app.Sessions)
	app.SessionMutex.Unlock()

	swept := app.sweepLimiters(now)
	if evicted > 0 || swept > 0 {
		logInfo("Evicted %d session%s and %d rate limiter%s, %d session%s live",
			evicted, plural(evicted), swept, plural(swept), live, plural(live))
	}
}

// idle reports whether lastSeen is older than CacheIdleTimeout. A zero
// timeout disables idle eviction.
func (app *App) idle(lastSeen, now time.Time) bool {
	return app.CacheIdleTimeout > 0 && now.Sub(lastSeen) > app.CacheIdleTimeout
}
